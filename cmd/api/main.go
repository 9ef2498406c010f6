package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rentaldesk/internal/database"
	"rentaldesk/internal/middleware"
	"rentaldesk/internal/modules/auth"
	"rentaldesk/internal/modules/booking"
	"rentaldesk/internal/modules/customer"
	"rentaldesk/internal/modules/equipment"
	"rentaldesk/internal/modules/notification"
	"rentaldesk/internal/modules/rental"
	jwtsvc "rentaldesk/internal/pkg/jwt"
	"rentaldesk/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	rentalRepo := repository.NewRentalRepository(db)

	j := jwtsvc.New(secret, 24*time.Hour)

	hub := notification.NewHub()
	defer hub.Close()
	notifService := notification.NewService(db, hub)
	notifHandler := notification.NewHandler(notifService, hub, j)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	customerService := customer.NewService(customerRepo)
	customerHandler := customer.NewHandler(customerService)

	equipmentService := equipment.NewService(equipmentRepo)
	equipmentHandler := equipment.NewHandler(equipmentService)
	synchronizer := equipment.NewSynchronizer()

	bookingService := booking.NewService(db, synchronizer, notifService, 0)
	bookingHandler := booking.NewHandler(bookingService)

	rentalService := rental.NewService(db, rentalRepo, bookingService, bookingService, synchronizer, notifService)
	rentalHandler := rental.NewHandler(rentalService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	notifHandler.RegisterWS(r)

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			customerHandler.RegisterRoutes(protected)
			equipmentHandler.RegisterRoutes(protected)
			rentalHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			notifHandler.RegisterRoutes(protected)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
