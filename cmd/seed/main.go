// Command seed creates the demo user and two sample buyers. It does nothing
// when buyers already exist.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/internal/config"
	pgInfra "github.com/fastygo/buyerleads/internal/infrastructure/postgres"
	"github.com/fastygo/buyerleads/pkg/logger"
	"github.com/fastygo/buyerleads/repository"
	"github.com/fastygo/buyerleads/repository/postgres"
	authUC "github.com/fastygo/buyerleads/usecase/auth"
	buyerUC "github.com/fastygo/buyerleads/usecase/buyer"
)

const demoEmail = "demo@example.com"

func main() {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	zapLogger, err := logger.New(logger.Config{Level: "info", Encoding: "console"})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := pgInfra.Migrate(dbCfg.URL, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}
	pool, err := pgInfra.NewPool(ctx, dbCfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := seed(ctx, postgres.NewUserRepository(pool), postgres.NewBuyerRepository(pool), postgres.NewHistoryRepository(pool), zapLogger); err != nil {
		zapLogger.Error("seeding failed", zap.Error(err))
		os.Exit(1)
	}
}

func seed(ctx context.Context, users repository.UserRepository, buyers repository.BuyerRepository, history repository.HistoryRepository, log *zap.Logger) error {
	now := time.Now().UTC()
	demo := &domain.User{
		ID:        authUC.UserID(demoEmail),
		Email:     demoEmail,
		Name:      "Demo User",
		Role:      domain.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Upsert(ctx, demo); err != nil {
		return err
	}

	_, total, err := buyers.List(ctx, repository.BuyerFilter{Limit: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		log.Info("sample data already exists", zap.Int("buyers", total))
		return nil
	}

	uc := buyerUC.New(buyers, history, buyerUC.Options{}, log)
	principal := domain.PrincipalFromUser(demo)
	for _, fields := range samples() {
		created, err := uc.Create(ctx, principal, fields)
		if err != nil {
			return err
		}
		log.Info("sample buyer created", zap.String("full_name", created.FullName))
	}
	return nil
}

func samples() []domain.BuyerFields {
	return []domain.BuyerFields{
		{
			FullName:     "John Doe",
			Email:        ptr("john@example.com"),
			Phone:        "9876543210",
			City:         domain.CityChandigarh,
			PropertyType: domain.PropertyApartment,
			BHK:          ptr(domain.BHK2),
			Purpose:      domain.PurposeBuy,
			BudgetMin:    ptr(int64(5000000)),
			BudgetMax:    ptr(int64(7000000)),
			Timeline:     domain.Timeline0To3,
			Source:       domain.SourceWebsite,
			Status:       domain.StatusNew,
			Notes:        ptr("Looking for a 2BHK apartment in Chandigarh"),
			Tags:         []string{"urgent", "first-time-buyer"},
		},
		{
			FullName:     "Jane Smith",
			Email:        ptr("jane@example.com"),
			Phone:        "9876543211",
			City:         domain.CityMohali,
			PropertyType: domain.PropertyVilla,
			BHK:          ptr(domain.BHK3),
			Purpose:      domain.PurposeBuy,
			BudgetMin:    ptr(int64(8000000)),
			BudgetMax:    ptr(int64(12000000)),
			Timeline:     domain.Timeline3To6,
			Source:       domain.SourceReferral,
			Status:       domain.StatusQualified,
			Notes:        ptr("Interested in luxury villas"),
			Tags:         []string{"premium", "investment"},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
