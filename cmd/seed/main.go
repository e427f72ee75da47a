package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/sameerbhagtani/rfid-school-system/internal/attendance"
	"github.com/sameerbhagtani/rfid-school-system/internal/calendar"
	"github.com/sameerbhagtani/rfid-school-system/internal/config"
	"github.com/sameerbhagtani/rfid-school-system/internal/store"
)

// Seed wipes the database and loads persons, holidays, and attendance
// facts from a JSON file. Provisioning is an operational concern; the
// service itself never creates persons or holidays.
//
//	go run ./cmd/seed -file seed.json
type seedFile struct {
	Persons []struct {
		PersonID string `json:"person_id"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	} `json:"persons"`
	Holidays []struct {
		Date   string `json:"date"`
		Reason string `json:"reason"`
	} `json:"holidays"`
	Facts []struct {
		Person   string `json:"person"`
		Date     string `json:"date"`
		MarkedBy string `json:"marked_by"`
	} `json:"facts"`
}

func main() {
	file := flag.String("file", "seed.json", "path to the seed data file")
	flag.Parse()

	cfg := config.Load()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := attendance.NewRepository(db.Client)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	if err := repo.WipeAll(ctx); err != nil {
		log.Fatalf("wipe existing data: %v", err)
	}
	log.Println("existing data cleared")

	// person_id -> row id, for wiring facts to their persons.
	rowIDs := make(map[string]string, len(seed.Persons))
	for _, p := range seed.Persons {
		personID, err := attendance.NormalizeID(p.PersonID)
		if err != nil {
			log.Fatalf("person %q: %v", p.PersonID, err)
		}
		role := attendance.Role(p.Role)
		if role == "" {
			role = attendance.RoleStudent
		}
		id, err := repo.InsertPerson(ctx, attendance.Person{
			PersonID: personID,
			Name:     p.Name,
			Role:     role,
		})
		if err != nil {
			log.Fatalf("insert person %s: %v", personID, err)
		}
		rowIDs[personID] = id
	}
	log.Printf("inserted %d person records", len(seed.Persons))

	for _, h := range seed.Holidays {
		day, err := calendar.ParseDay(h.Date)
		if err != nil {
			log.Fatalf("holiday %q: %v", h.Date, err)
		}
		if err := repo.InsertHoliday(ctx, attendance.Holiday{Day: day, Reason: h.Reason}); err != nil {
			log.Fatalf("insert holiday %s: %v", h.Date, err)
		}
	}
	log.Printf("inserted %d holiday records", len(seed.Holidays))

	var facts []attendance.Fact
	for _, f := range seed.Facts {
		day, err := calendar.ParseDay(f.Date)
		if err != nil {
			log.Fatalf("fact %q: %v", f.Date, err)
		}
		person, ok := rowIDs[mustNormalize(f.Person)]
		if !ok {
			log.Fatalf("fact references unknown person %q", f.Person)
		}
		markedBy, ok := rowIDs[mustNormalize(f.MarkedBy)]
		if !ok {
			log.Fatalf("fact references unknown marker %q", f.MarkedBy)
		}
		facts = append(facts, attendance.Fact{PersonID: person, Day: day, MarkedBy: markedBy})
	}
	if err := repo.InsertFacts(ctx, facts); err != nil {
		log.Fatalf("insert facts: %v", err)
	}
	log.Printf("inserted %d attendance records", len(facts))

	log.Println("db initialized")
}

func mustNormalize(id string) string {
	n, err := attendance.NormalizeID(id)
	if err != nil {
		log.Fatalf("identifier %q: %v", id, err)
	}
	return n
}
