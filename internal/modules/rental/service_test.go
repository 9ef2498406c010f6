package rental

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rentaldesk/internal/database"
	"rentaldesk/internal/domain"
	"rentaldesk/internal/modules/booking"
	"rentaldesk/internal/modules/equipment"
	"rentaldesk/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:rental_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	sync := equipment.NewSynchronizer()
	bookingSvc := booking.NewService(db, sync, nil, 0)
	svc := NewService(db, repository.NewRentalRepository(db), bookingSvc, bookingSvc, sync, nil)
	return svc, db
}

func seedCustomer(t *testing.T, db *gorm.DB) *domain.Customer {
	t.Helper()
	c := &domain.Customer{Name: "NorthRoad Construction"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	return c
}

func seedEquipment(t *testing.T, db *gorm.DB, dailyRate int64) *domain.Equipment {
	t.Helper()
	e := &domain.Equipment{
		Name:      "JCB 3CX Backhoe Loader",
		Status:    domain.EquipmentAvailable,
		DailyRate: decimal.NewFromInt(dailyRate),
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("failed to seed equipment: %v", err)
	}
	return e
}

func day(offset int) time.Time {
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func equipmentStatus(t *testing.T, db *gorm.DB, id int64) domain.EquipmentStatus {
	t.Helper()
	var e domain.Equipment
	if err := db.First(&e, id).Error; err != nil {
		t.Fatalf("failed to reload equipment: %v", err)
	}
	return e.Status
}

func TestCreateWithItems(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	equip := seedEquipment(t, db, 100)

	rental, err := svc.Create(ctx, cust.ID, day(0), day(4), "site works", []domain.AssignmentSpec{
		{EquipmentID: equip.ID},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rental.Status != domain.RentalPending {
		t.Fatalf("expected new rental in pending, got %s", rental.Status)
	}
	if len(rental.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(rental.Items))
	}
	if !rental.TotalAmount.Equal(decimal.RequireFromString("400.00")) {
		t.Fatalf("expected total 400.00, got %s", rental.TotalAmount)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)

	if _, err := svc.Create(ctx, cust.ID, day(4), day(0), "", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, 9999, day(0), day(4), "", nil); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestTransitionFullLifecycle(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	equip := seedEquipment(t, db, 100)

	// Range covering now so mobilization marks the equipment rented.
	start := time.Now().UTC().AddDate(0, 0, -1)
	end := time.Now().UTC().AddDate(0, 0, 5)

	rental, err := svc.Create(ctx, cust.ID, start, end, "", []domain.AssignmentSpec{{EquipmentID: equip.ID}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	const actor = int64(42)

	rental, err = svc.Transition(ctx, rental.ID, domain.RentalQuotation, actor)
	if err != nil {
		t.Fatalf("pending->quotation returned error: %v", err)
	}

	rental, err = svc.Transition(ctx, rental.ID, domain.RentalQuotationApproved, actor)
	if err != nil {
		t.Fatalf("quotation->approved returned error: %v", err)
	}
	if rental.ApprovedBy == nil || *rental.ApprovedBy != actor {
		t.Fatal("expected approval stamp with actor id")
	}
	if rental.ApprovedAt == nil {
		t.Fatal("expected approval timestamp")
	}

	rental, err = svc.Transition(ctx, rental.ID, domain.RentalMobilization, actor)
	if err != nil {
		t.Fatalf("approved->mobilization returned error: %v", err)
	}
	if rental.MobilizationDate == nil {
		t.Fatal("expected mobilization date")
	}
	if got := equipmentStatus(t, db, equip.ID); got != domain.EquipmentRented {
		t.Fatalf("expected equipment rented during mobilization, got %s", got)
	}

	rental, err = svc.Transition(ctx, rental.ID, domain.RentalActive, actor)
	if err != nil {
		t.Fatalf("mobilization->active returned error: %v", err)
	}
	if got := equipmentStatus(t, db, equip.ID); got != domain.EquipmentRented {
		t.Fatalf("expected equipment rented while active, got %s", got)
	}

	rental, err = svc.Transition(ctx, rental.ID, domain.RentalCompleted, actor)
	if err != nil {
		t.Fatalf("active->completed returned error: %v", err)
	}
	if rental.CompletedBy == nil || *rental.CompletedBy != actor {
		t.Fatal("expected completion stamp with actor id")
	}
	if rental.ActualEndDate == nil {
		t.Fatal("expected actual end date to be filled on completion")
	}
	if got := equipmentStatus(t, db, equip.ID); got != domain.EquipmentAvailable {
		t.Fatalf("expected equipment released after completion, got %s", got)
	}
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	rental, err := svc.Create(ctx, cust.ID, day(0), day(4), "", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Transition(ctx, rental.ID, domain.RentalActive, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// State is untouched by the rejected move.
	stored, err := svc.GetByID(ctx, rental.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.Status != domain.RentalPending {
		t.Fatalf("expected rental still pending, got %s", stored.Status)
	}

	if _, err := svc.Transition(ctx, 9999, domain.RentalQuotation, 1); !errors.Is(err, ErrRentalNotFound) {
		t.Fatalf("expected ErrRentalNotFound, got %v", err)
	}
}

func TestApprovalStampsSurviveLaterTransitions(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)

	rental, err := svc.Create(ctx, cust.ID, day(0), day(4), "", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Transition(ctx, rental.ID, domain.RentalQuotation, 7); err != nil {
		t.Fatalf("transition returned error: %v", err)
	}
	approved, err := svc.Transition(ctx, rental.ID, domain.RentalQuotationApproved, 7)
	if err != nil {
		t.Fatalf("transition returned error: %v", err)
	}

	later, err := svc.Transition(ctx, rental.ID, domain.RentalMobilization, 8)
	if err != nil {
		t.Fatalf("transition returned error: %v", err)
	}
	if later.ApprovedBy == nil || *later.ApprovedBy != 7 {
		t.Fatal("expected original approver to survive the next transition")
	}
	if later.ApprovedAt == nil || later.ApprovedAt.Sub(*approved.ApprovedAt).Abs() > time.Second {
		t.Fatal("expected approval timestamp to survive the next transition")
	}
}

func TestMobilizationConflictRollsBack(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	equip := seedEquipment(t, db, 100)

	rental, err := svc.Create(ctx, cust.ID, day(0), day(5), "", []domain.AssignmentSpec{{EquipmentID: equip.ID}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Transition(ctx, rental.ID, domain.RentalQuotation, 1); err != nil {
		t.Fatalf("transition returned error: %v", err)
	}
	if _, err := svc.Transition(ctx, rental.ID, domain.RentalQuotationApproved, 1); err != nil {
		t.Fatalf("transition returned error: %v", err)
	}

	// A competing rental books the same equipment over an overlapping range
	// behind this rental's back.
	other := &domain.Rental{CustomerID: cust.ID, Status: domain.RentalActive, StartDate: day(2), ExpectedEndDate: day(8)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("failed to seed competing rental: %v", err)
	}
	item := &domain.RentalItem{RentalID: other.ID, EquipmentID: equip.ID, Rate: decimal.NewFromInt(100), RateType: domain.RateDaily, StartDate: day(2), EndDate: day(8)}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to seed competing item: %v", err)
	}

	_, err = svc.Transition(ctx, rental.ID, domain.RentalMobilization, 1)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.RentalID != other.ID {
		t.Fatalf("expected conflict with rental %d, got %d", other.ID, conflict.RentalID)
	}

	// The failed dispatch leaves the rental where it was.
	stored, err := svc.GetByID(ctx, rental.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.Status != domain.RentalQuotationApproved {
		t.Fatalf("expected rental still quotation_approved, got %s", stored.Status)
	}
	if stored.MobilizationDate != nil {
		t.Fatal("expected no mobilization date after rollback")
	}
}

func TestCancelReleasesEquipment(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	equip := seedEquipment(t, db, 100)

	start := time.Now().UTC().AddDate(0, 0, -1)
	end := time.Now().UTC().AddDate(0, 0, 5)

	rental, err := svc.Create(ctx, cust.ID, start, end, "", []domain.AssignmentSpec{{EquipmentID: equip.ID}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	for _, target := range []domain.RentalStatus{domain.RentalQuotation, domain.RentalQuotationApproved, domain.RentalMobilization} {
		if _, err := svc.Transition(ctx, rental.ID, target, 1); err != nil {
			t.Fatalf("transition to %s returned error: %v", target, err)
		}
	}
	if got := equipmentStatus(t, db, equip.ID); got != domain.EquipmentRented {
		t.Fatalf("expected equipment rented, got %s", got)
	}

	if _, err := svc.Transition(ctx, rental.ID, domain.RentalCancelled, 1); err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if got := equipmentStatus(t, db, equip.ID); got != domain.EquipmentAvailable {
		t.Fatalf("expected equipment released after cancel, got %s", got)
	}
}

func TestMaintenanceStatusNotOverwritten(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	equip := seedEquipment(t, db, 100)

	start := time.Now().UTC().AddDate(0, 0, -1)
	end := time.Now().UTC().AddDate(0, 0, 5)

	rental, err := svc.Create(ctx, cust.ID, start, end, "", []domain.AssignmentSpec{{EquipmentID: equip.ID}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Operator pulls the machine into the workshop mid-lifecycle.
	if err := db.Model(&domain.Equipment{}).Where("id = ?", equip.ID).Update("status", domain.EquipmentUnderMaintenance).Error; err != nil {
		t.Fatalf("failed to set maintenance: %v", err)
	}

	for _, target := range []domain.RentalStatus{domain.RentalQuotation, domain.RentalQuotationApproved, domain.RentalMobilization} {
		if _, err := svc.Transition(ctx, rental.ID, target, 1); err != nil {
			t.Fatalf("transition to %s returned error: %v", target, err)
		}
	}

	if got := equipmentStatus(t, db, equip.ID); got != domain.EquipmentUnderMaintenance {
		t.Fatalf("expected maintenance status to win, got %s", got)
	}
}

func TestFutureDatedEngagementKeepsEquipmentAvailable(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	equip := seedEquipment(t, db, 100)

	// Booking interval entirely in the future: engaged status alone does not
	// flip the equipment to rented.
	start := time.Now().UTC().AddDate(0, 0, 30)
	end := time.Now().UTC().AddDate(0, 0, 35)

	rental, err := svc.Create(ctx, cust.ID, start, end, "", []domain.AssignmentSpec{{EquipmentID: equip.ID}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	for _, target := range []domain.RentalStatus{domain.RentalQuotation, domain.RentalQuotationApproved, domain.RentalMobilization, domain.RentalActive} {
		if _, err := svc.Transition(ctx, rental.ID, target, 1); err != nil {
			t.Fatalf("transition to %s returned error: %v", target, err)
		}
	}

	if got := equipmentStatus(t, db, equip.ID); got != domain.EquipmentAvailable {
		t.Fatalf("expected future-dated booking to leave equipment available, got %s", got)
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	equip := seedEquipment(t, db, 100)

	rental, err := svc.Create(ctx, cust.ID, day(0), day(3), "", []domain.AssignmentSpec{{EquipmentID: equip.ID}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Corrupt the stored total; recalculation must restore the item sum.
	if err := db.Model(&domain.Rental{}).Where("id = ?", rental.ID).Update("total_amount", decimal.NewFromInt(1)).Error; err != nil {
		t.Fatalf("failed to corrupt total: %v", err)
	}

	want := decimal.RequireFromString("300.00")
	for i := 0; i < 2; i++ {
		total, err := svc.Recalculate(ctx, rental.ID)
		if err != nil {
			t.Fatalf("Recalculate returned error: %v", err)
		}
		if !total.Equal(want) {
			t.Fatalf("expected total %s, got %s", want, total)
		}
	}

	stored, err := svc.GetByID(ctx, rental.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !stored.TotalAmount.Equal(want) {
		t.Fatalf("expected stored total %s, got %s", want, stored.TotalAmount)
	}
}

func TestDeleteSoftRemovesRental(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cust := seedCustomer(t, db)
	rental, err := svc.Create(ctx, cust.ID, day(0), day(3), "", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(ctx, rental.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.GetByID(ctx, rental.ID); !errors.Is(err, ErrRentalNotFound) {
		t.Fatalf("expected ErrRentalNotFound after delete, got %v", err)
	}

	// Row is retained for audit.
	var count int64
	db.Unscoped().Model(&domain.Rental{}).Where("id = ?", rental.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected soft-deleted row to remain, found %d", count)
	}
}
