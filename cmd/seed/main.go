package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"flag"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/auth"
	"github.com/tableside/console/internal/config"
)

// placeholderPNG is a 1x1 transparent PNG used as the picture of every seeded
// item.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type seedItem struct {
	name     string
	price    int64
	category string
}

var seedCategories = []string{"Food", "Drinks", "Snacks"}

var seedItems = []seedItem{
	{"Nasi Goreng", 25000, "Food"},
	{"Mie Goreng", 22000, "Food"},
	{"Ayam Bakar", 30000, "Food"},
	{"Es Teh", 5000, "Drinks"},
	{"Kopi Susu", 12000, "Drinks"},
	{"Jus Alpukat", 15000, "Drinks"},
	{"Kerupuk", 2000, "Snacks"},
	{"Pisang Goreng", 8000, "Snacks"},
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// CLI flags
	email := flag.String("email", "", "Operator email address")
	password := flag.String("password", "", "Operator password")
	flag.Parse()

	// Fall back to environment variables
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *email == "" || *password == "" {
		log.Fatal("email and password are required (flags or SEED_EMAIL / SEED_PASSWORD)")
	}

	cfg := config.Load()
	session, err := auth.NewSession(&auth.MemoryTokenStore{}, log)
	if err != nil {
		log.WithError(err).Fatal("session")
	}
	client, err := api.New(cfg.APIBaseURL, cfg.APITimeout, session, log)
	if err != nil {
		log.WithError(err).Fatal("api client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	token, err := client.Login(ctx, *email, *password)
	if err != nil {
		log.WithError(err).Fatal("login failed")
	}
	if err := session.Start(token); err != nil {
		log.WithError(err).Fatal("start session")
	}
	defer client.Logout(context.Background())

	for _, name := range seedCategories {
		if err := client.CreateCategory(ctx, name); err != nil {
			log.WithError(err).WithField("category", name).Warn("skipping category")
			continue
		}
		log.WithField("category", name).Info("category created")
	}

	categories, err := client.ListCategories(ctx)
	if err != nil {
		log.WithError(err).Fatal("list categories")
	}
	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		ids[c.Name] = c.ID
	}

	img, err := base64.StdEncoding.DecodeString(placeholderPNG)
	if err != nil {
		log.WithError(err).Fatal("decode placeholder image")
	}

	created := 0
	for _, it := range seedItems {
		form := api.ItemForm{
			Name:  it.name,
			Price: decimal.NewFromInt(it.price),
			Image: &api.Image{Filename: "placeholder.png", ContentType: "image/png", Body: bytes.NewReader(img)},
		}
		if id, ok := ids[it.category]; ok {
			form.CategoryID = &id
		}
		if err := client.CreateItem(ctx, form); err != nil {
			log.WithError(err).WithField("item", it.name).Warn("skipping item")
			continue
		}
		created++
	}

	log.WithFields(logrus.Fields{
		"categories": len(categories),
		"items":      created,
	}).Info("seed complete")
}
