package main

import (
	"fmt"
	"log"
	"time"

	"rentaldesk/internal/database"
	"rentaldesk/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	db, err := database.Connect("rentaldesk.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM rental_items")
	db.Exec("DELETE FROM rentals")
	db.Exec("DELETE FROM equipment")
	db.Exec("DELETE FROM customers")
	db.Exec("DELETE FROM users")

	// ================== USERS ==================
	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@rentaldesk.io",
		PasswordHash: string(adminHash),
		Role:         domain.RoleAdmin,
		Name:         "Administrator",
	}
	db.Create(&admin)
	log.Println("Admin created: admin@rentaldesk.io / admin123")

	managerHash, _ := bcrypt.GenerateFromPassword([]byte("manager123"), bcrypt.DefaultCost)
	manager := domain.User{
		Email:        "manager@rentaldesk.io",
		PasswordHash: string(managerHash),
		Role:         domain.RoleManager,
		Name:         "Yard Manager",
	}
	db.Create(&manager)

	for i := 1; i <= 2; i++ {
		hash, _ := bcrypt.GenerateFromPassword([]byte("staff123"), bcrypt.DefaultCost)
		db.Create(&domain.User{
			Email:        fmt.Sprintf("staff%d@rentaldesk.io", i),
			PasswordHash: string(hash),
			Role:         domain.RoleStaff,
			Name:         fmt.Sprintf("Staff %d", i),
		})
	}

	// ================== CUSTOMERS ==================
	log.Println("Creating customers...")

	customers := []domain.Customer{
		{Name: "Aibek Dzhaksybekov", CompanyName: "KazBuild LLP", Email: "aibek@kazbuild.kz", Phone: "+7 701 555 0101", Address: "12 Abay Ave, Almaty"},
		{Name: "Marina Petrova", CompanyName: "NorthRoad Construction", Email: "marina@northroad.kz", Phone: "+7 702 555 0102", Address: "4 Turan St, Astana"},
		{Name: "Daniyar Seitkali", Email: "daniyar@gmail.com", Phone: "+7 705 555 0103"},
	}
	for i := range customers {
		db.Create(&customers[i])
	}

	// ================== EQUIPMENT ==================
	log.Println("Creating equipment...")

	equipment := []domain.Equipment{
		{Name: "CAT 320 Excavator", Category: "earthmoving", SerialNumber: "CAT320-0415", Status: domain.EquipmentAvailable, DailyRate: decimal.NewFromInt(95000), WeeklyRate: decimal.NewFromInt(570000), MonthlyRate: decimal.NewFromInt(1900000)},
		{Name: "JCB 3CX Backhoe Loader", Category: "earthmoving", SerialNumber: "JCB3CX-1188", Status: domain.EquipmentAvailable, DailyRate: decimal.NewFromInt(60000), WeeklyRate: decimal.NewFromInt(360000), MonthlyRate: decimal.NewFromInt(1200000)},
		{Name: "Atlas Copco XAS 88 Compressor", Category: "air", SerialNumber: "XAS88-2301", Status: domain.EquipmentAvailable, DailyRate: decimal.NewFromInt(18000), WeeklyRate: decimal.NewFromInt(108000), MonthlyRate: decimal.NewFromInt(360000)},
		{Name: "Liebherr LTM 1050 Crane", Category: "lifting", SerialNumber: "LTM1050-0077", Status: domain.EquipmentAvailable, DailyRate: decimal.NewFromInt(250000), WeeklyRate: decimal.NewFromInt(1500000), MonthlyRate: decimal.NewFromInt(5000000)},
		{Name: "Wacker Neuson Plate Compactor", Category: "compaction", SerialNumber: "WPU1550-5512", Status: domain.EquipmentUnderMaintenance, DailyRate: decimal.NewFromInt(8000), WeeklyRate: decimal.NewFromInt(48000), MonthlyRate: decimal.NewFromInt(160000)},
	}
	for i := range equipment {
		db.Create(&equipment[i])
	}

	// ================== RENTALS ==================
	log.Println("Creating sample rentals...")

	start := time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 14)

	rental := domain.Rental{
		CustomerID:      customers[0].ID,
		Status:          domain.RentalPending,
		StartDate:       start,
		ExpectedEndDate: end,
		Notes:           "Foundation works, phase 1",
	}
	db.Create(&rental)

	item := domain.RentalItem{
		RentalID:    rental.ID,
		EquipmentID: equipment[0].ID,
		Rate:        equipment[0].DailyRate,
		RateType:    domain.RateDaily,
		StartDate:   start,
		EndDate:     end,
	}
	item.TotalAmount = item.ComputeTotal(start, end)
	db.Create(&item)

	rental.Items = []domain.RentalItem{item}
	rental.TotalAmount = rental.RecalculateTotal()
	db.Model(&domain.Rental{}).Where("id = ?", rental.ID).Update("total_amount", rental.TotalAmount)

	log.Println("Seed complete.")
}
