package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/opimenov/quizbot/internal/config"
	"github.com/opimenov/quizbot/internal/models"
	"github.com/opimenov/quizbot/internal/security"
)

// Imports quiz content from an xlsx workbook. Each sheet is one theme; the
// sheet name becomes the theme title. Expected columns per row:
//
//	points | question | option 1 | option 2 | option 3 | option 4 | correct option (1-4)
//
// The first row is treated as a header and skipped. Questions already in
// the database (by title) are skipped, so re-running the import is safe.
func main() {
	filePath := flag.String("file", "questions.xlsx", "path to the xlsx workbook")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	f, err := excelize.OpenFile(*filePath)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	totalImported := 0
	totalSkipped := 0

	for _, sheetName := range f.GetSheetList() {
		fmt.Printf("Importing sheet: %s\n", sheetName)

		rows, err := f.GetRows(sheetName)
		if err != nil {
			fmt.Printf("Error reading sheet %s: %v\n", sheetName, err)
			continue
		}

		themeTitle := security.SanitizeString(sheetName)
		theme := models.Theme{Title: themeTitle}
		if err := db.Where("title = ?", themeTitle).FirstOrCreate(&theme).Error; err != nil {
			fmt.Printf("Error creating theme %s: %v\n", themeTitle, err)
			continue
		}

		for i, row := range rows {
			if i == 0 || len(row) < 7 { // Skip header or invalid rows
				continue
			}

			points, err := strconv.Atoi(row[0])
			if err != nil || points <= 0 {
				fmt.Printf("Invalid points %q in row %d\n", row[0], i+1)
				continue
			}

			questionText := security.SanitizeString(row[1])
			if questionText == "" {
				continue
			}

			options := []string{row[2], row[3], row[4], row[5]}
			correctIdx, err := strconv.Atoi(row[6])
			if err != nil || correctIdx < 1 || correctIdx > len(options) {
				fmt.Printf("Invalid correct option %q in row %d\n", row[6], i+1)
				continue
			}

			var existing int64
			db.Model(&models.Question{}).Where("title = ?", questionText).Count(&existing)
			if existing > 0 {
				totalSkipped++
				continue
			}

			question := models.Question{
				ThemeID: theme.ID,
				Title:   questionText,
				Points:  points,
			}
			for j, option := range options {
				title := security.SanitizeString(option)
				if title == "" {
					continue
				}
				question.Answers = append(question.Answers, models.Answer{
					Title:     title,
					IsCorrect: j+1 == correctIdx,
				})
			}

			if err := db.Create(&question).Error; err != nil {
				fmt.Printf("Error creating question in row %d: %v\n", i+1, err)
				continue
			}
			totalImported++
		}
	}

	fmt.Printf("Done. Imported %d questions, skipped %d duplicates.\n", totalImported, totalSkipped)
}
