// Command seed loads demo data into the platform database: an admin
// account, a published event, a starter journey and a small wine catalog.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/webatelier/platform/internal/config"
	"github.com/webatelier/platform/internal/domain/catalog"
	"github.com/webatelier/platform/internal/domain/event"
	"github.com/webatelier/platform/internal/domain/journey"
	"github.com/webatelier/platform/internal/domain/user"
	catalogsvc "github.com/webatelier/platform/internal/services/catalog"
	eventssvc "github.com/webatelier/platform/internal/services/events"
	journeyssvc "github.com/webatelier/platform/internal/services/journeys"
	userssvc "github.com/webatelier/platform/internal/services/users"
	"github.com/webatelier/platform/internal/storage/postgres"
)

func main() {
	var (
		adminEmail    = flag.String("admin-email", "admin@example.fr", "Email of the seeded admin account")
		adminPassword = flag.String("admin-password", "", "Password of the seeded admin account (required)")
		skipDemoData  = flag.Bool("skip-demo-data", false, "Only create the admin account")
	)
	flag.Parse()

	if *adminPassword == "" {
		log.Fatal("-admin-password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	ctx := context.Background()
	store := postgres.New(db)
	users := userssvc.New(store, nil, nil)

	admin, err := users.Register(ctx, *adminEmail, *adminPassword, "Admin")
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	if _, err := users.SetRole(ctx, admin.ID, user.RoleAdmin); err != nil {
		log.Fatalf("promote admin: %v", err)
	}
	fmt.Printf("admin account %s created\n", admin.Email)

	if *skipDemoData {
		return
	}
	if err := seedDemoData(ctx, store, admin.ID); err != nil {
		log.Fatalf("seed demo data: %v", err)
	}
	fmt.Println("demo data loaded")
}

func seedDemoData(ctx context.Context, store *postgres.Store, adminID string) error {
	events := eventssvc.New(store, nil, nil)
	journeys := journeyssvc.New(store, nil)
	wines := catalogsvc.New(store, nil)

	e, err := events.Create(ctx, event.Event{
		Title:       "Soirée rencontre au caveau",
		Description: "Dégustation et rencontres, 30 places.",
		Location:    "Lyon 1er",
		StartsAt:    time.Now().AddDate(0, 0, 14),
		Capacity:    30,
		CreatedBy:   adminID,
	})
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if _, err := events.Publish(ctx, e.ID); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	j, err := journeys.CreateJourney(ctx, journey.Journey{
		Title:       "Premiers pas",
		Description: "Complète ton profil et viens à ta première soirée.",
		Active:      true,
	})
	if err != nil {
		return fmt.Errorf("create journey: %w", err)
	}
	ch, err := journeys.AddChapter(ctx, journey.Chapter{
		JourneyID:    j.ID,
		Title:        "Ton profil",
		Description:  "Montre qui tu es.",
		DeadlineDays: 14,
	})
	if err != nil {
		return fmt.Errorf("add chapter: %w", err)
	}
	if _, err := journeys.AddChallenge(ctx, journey.Challenge{
		ChapterID: ch.ID,
		Title:     "Rédige ta bio",
		Points:    10,
	}); err != nil {
		return fmt.Errorf("add challenge: %w", err)
	}
	if _, err := journeys.AddChallenge(ctx, journey.Challenge{
		ChapterID: ch.ID,
		Title:     "Ajoute une photo",
		Points:    5,
	}); err != nil {
		return fmt.Errorf("add challenge: %w", err)
	}
	if _, err := journeys.AddReward(ctx, journey.Reward{
		ChapterID: ch.ID,
		Name:      "Badge nouveau membre",
		Kind:      "badge",
		Value:     "newcomer",
	}); err != nil {
		return fmt.Errorf("add reward: %w", err)
	}

	producer, err := wines.CreateProducer(ctx, catalog.Producer{
		Name:   "Domaine des Hautes Pierres",
		Region: "Beaujolais",
		Story:  "Trois générations sur des coteaux granitiques.",
	})
	if err != nil {
		return fmt.Errorf("create producer: %w", err)
	}
	if _, err := wines.CreateCoffret(ctx, catalog.Coffret{
		ProducerID:  producer.ID,
		Name:        "Coffret découverte",
		Description: "Six bouteilles, trois cuvées.",
		PriceCents:  8900,
		Stock:       40,
	}); err != nil {
		return fmt.Errorf("create coffret: %w", err)
	}
	return nil
}
