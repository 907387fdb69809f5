package pms

import "testing"

func TestRegistryRegisterGet(t *testing.T) {
	r := NewRegistry()
	demo := NewDemoAdapter(nil)
	r.Register(demo)

	got, ok := r.Get("demo")
	if !ok {
		t.Fatal("expected demo provider to be registered")
	}
	if got.Name() != "demo" {
		t.Errorf("Name() = %q, want demo", got.Name())
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing provider lookup to fail")
	}
}

func TestRegistryAll(t *testing.T) {
	r := NewRegistry()
	r.Register(NewDemoAdapter(nil))
	r.Register(NewSmoobuAdapter("", nil))

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
}

func TestRegistryReplacesOnReRegister(t *testing.T) {
	r := NewRegistry()
	r.Register(NewDemoAdapter(nil))
	r.Register(NewDemoAdapter([]RemoteProperty{{ExternalID: "1"}}))

	if len(r.All()) != 1 {
		t.Fatalf("expected re-registering the same name to replace, not duplicate")
	}
}
