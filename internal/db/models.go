package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Tenant struct {
	ID                    uuid.UUID
	Name                  string
	PmsSyncEnabled        bool
	StripeCustomerID      pgtype.Text
	StripeSubscriptionID  pgtype.Text
	StripeParentItemID    pgtype.Text
	StripeChildItemID     pgtype.Text
	SubscriptionStatus    string
	TrialEndsAt           pgtype.Timestamptz
	LastBilledParentUnits int32
	LastBilledChildUnits  int32
	DefaultTimezone       string
	// AccessDisabled gates a tenant's use of the product (the C7 webhook
	// handler's "ban"/"unban" effect); it is independent of
	// SubscriptionStatus so a past_due tenant mid-grace-period can be
	// distinguished from one already locked out.
	AccessDisabled bool
	// PaymentFailed is set when a trialing tenant's payment method fails
	// without yet affecting access or subscription status — trial access
	// is never revoked on a failed charge, only flagged.
	PaymentFailed bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Property struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	TeamID         uuid.UUID
	GroupID        pgtype.UUID
	Name           string
	Status         string
	Capacity       int32
	SurfaceArea    pgtype.Float8
	PropertyType   string
	Latitude       float64
	Longitude      float64
	BasePriceCents int32
	IntegrationID  pgtype.UUID
	PmsExternalID  pgtype.Text
	// Strategy is the owner's chosen risk profile for automated pricing:
	// "prudent", "equilibre", or "agressif".
	Strategy string
	// FloorPriceCents and MinStay are mandatory pricing rules (0 <=
	// floor_price_cents <= base_price_cents); CeilingPriceCents, MaxStay,
	// and the discount/markup fields are optional per-property overrides
	// the calendar builder falls back to sane defaults without.
	FloorPriceCents        int32
	CeilingPriceCents      pgtype.Int4
	MinStay                int32
	MaxStay                pgtype.Int4
	WeeklyDiscountPercent  pgtype.Float8
	MonthlyDiscountPercent pgtype.Float8
	WeekendMarkupPercent   pgtype.Float8
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type Group struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TeamID        uuid.UUID
	Name          string
	MainPropertyID pgtype.UUID
	SyncPrices    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PriceOverride struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	Date       time.Time
	PriceCents int32
	Locked     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Booking struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	ExternalID string
	CheckIn    time.Time
	CheckOut   time.Time
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Integration struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Type        string
	Credentials []byte
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PropertyLog struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	UserID     pgtype.UUID
	UserEmail  pgtype.Text
	Action     string
	Changes    []byte
	Timestamp  time.Time
}

type SystemCache struct {
	Key         string
	Value       []byte
	ProducerID  pgtype.Text
	RefreshedAt time.Time
	ExpiresAt   time.Time
}

type UsedListingID struct {
	ListingID string
	TenantID  uuid.UUID
	CreatedAt time.Time
}

// SchedulerState is the C6 scheduler's per-tenant bookkeeping, persisted so
// eligibility and retry backoff survive a process restart.
type SchedulerState struct {
	TenantID          uuid.UUID
	LastAttempt       pgtype.Timestamptz
	LastSuccessfulRun pgtype.Timestamptz
	FailedAttempts    int32
	UpdatedAt         time.Time
}

// WebhookEvent records a processed Stripe event id for idempotency.
type WebhookEvent struct {
	EventID     string
	ProcessedAt time.Time
}
