package geo

import "testing"

func TestDistanceMetersSamePoint(t *testing.T) {
	p := Point{Latitude: 48.8566, Longitude: 2.3522}
	if d := DistanceMeters(p, p); d != 0 {
		t.Fatalf("expected 0 distance for identical points, got %f", d)
	}
}

func TestDistanceMetersKnownPair(t *testing.T) {
	// Paris to Versailles, roughly 17.9 km apart for these coordinates.
	paris := Point{Latitude: 48.8566, Longitude: 2.3522}
	versailles := Point{Latitude: 48.8049, Longitude: 2.1204}

	d := DistanceMeters(paris, versailles)
	if d < 16000 || d > 19000 {
		t.Fatalf("expected distance near 17.9km, got %fm", d)
	}
}

func TestWithinRadius(t *testing.T) {
	a := Point{Latitude: 40.0, Longitude: -73.0}
	b := Point{Latitude: 40.001, Longitude: -73.0} // ~111m north

	if !WithinRadius(a, b, 500) {
		t.Fatalf("expected points ~111m apart to be within 500m")
	}
	if WithinRadius(a, b, 50) {
		t.Fatalf("expected points ~111m apart to NOT be within 50m")
	}
}
