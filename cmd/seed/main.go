package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/database"
	"github.com/plateful/backend/internal/models"
)

// Seeds the tag and ingredient reference data. The ingredients file is a
// headerless CSV of "name,measurement_unit" rows; rerunning is safe.
func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.csv", "path to the ingredients CSV")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	tags := []models.Tag{
		{Name: "Breakfast", Slug: "breakfast", Color: "#E26C2D"},
		{Name: "Lunch", Slug: "lunch", Color: "#49B64E"},
		{Name: "Dinner", Slug: "dinner", Color: "#8775D2"},
	}
	for _, tag := range tags {
		if err := db.Where(models.Tag{Slug: tag.Slug}).FirstOrCreate(&tag).Error; err != nil {
			log.Fatalf("Failed to seed tag %s: %v", tag.Slug, err)
		}
	}
	log.Printf("Seeded %d tags", len(tags))

	f, err := os.Open(*ingredientsPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *ingredientsPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read ingredients CSV: %v", err)
		}

		ingredient := models.Ingredient{Name: record[0], MeasurementUnit: record[1]}
		if err := db.Where(models.Ingredient{Name: record[0], MeasurementUnit: record[1]}).
			FirstOrCreate(&ingredient).Error; err != nil {
			log.Fatalf("Failed to seed ingredient %q: %v", record[0], err)
		}
		count++
	}
	log.Printf("Seeded %d ingredients", count)
}
