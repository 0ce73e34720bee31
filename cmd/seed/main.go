// Package main provides a tool to seed the local database with demo data.
//
// This creates confirmed demo accounts with profiles, publishes a handful of
// poems for each, and sprinkles likes, comments, and follows across them so
// the feed and social features have something to show.
//
// Usage:
//
//	DATA_DIR=~/AnonVerse go run ./cmd/seed
//	DATA_DIR=~/AnonVerse go run ./cmd/seed --poems-per-poet 5
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManakRaj-7/AnonVerse/internal/authkit"
	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/data/sqlite"
	"github.com/ManakRaj-7/AnonVerse/internal/id"
	"github.com/ManakRaj-7/AnonVerse/internal/normalize"
)

var poemsPerPoet = flag.Int("poems-per-poet", 3, "Number of poems to publish per demo poet")

// demoPoets are the pen names of the generated demo accounts.
var demoPoets = []string{
	"Quiet Harbor",
	"Inkwell Fox",
	"Paper Lantern",
	"Night Sparrow",
	"Tide Walker",
}

// demoLines are mixed and matched into poem bodies.
var demoLines = []string{
	"the streetlight hums a borrowed tune",
	"rain collects in the shape of your name",
	"we fold the morning into smaller hours",
	"every window keeps a different sky",
	"the kettle sings to an empty room",
	"autumn files its paperwork in red",
	"a ferry leaves, the harbor holds its breath",
	"somewhere a door learns how to close gently",
}

// demoTitles are candidate poem titles.
var demoTitles = []string{
	"Harbor Lights",
	"Margins",
	"What the Kettle Knows",
	"Unsent",
	"Low Tide",
	"Paper Weather",
	"Second Window",
	"Small Hours",
}

// demoComments are candidate comment bodies.
var demoComments = []string{
	"This one stayed with me all day.",
	"The last line is a quiet gut punch.",
	"Reading this on the train, missing my stop.",
	"More of this, please.",
}

func main() {
	flag.Parse()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = os.ExpandEnv("$HOME/AnonVerse")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}

	dbPath := filepath.Join(dataDir, "anonverse.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	store, err := sqlite.Open(dbPath, slog.New(slog.DiscardHandler))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	poetIDs := createDemoPoets(ctx, store)
	if len(poetIDs) == 0 {
		log.Fatal("No demo poets available")
	}

	poemIDs := publishDemoPoems(ctx, store, rng, poetIDs)
	sprinkleEngagement(ctx, store, rng, poetIDs, poemIDs)

	fmt.Println("\nSeeding complete!")
}

// createDemoPoets inserts confirmed accounts and profiles for each demo pen
// name, skipping ones that already exist. Returns the profile IDs.
func createDemoPoets(ctx context.Context, store *sqlite.Store) []string {
	fmt.Println("\n=== Creating Demo Poets ===")

	passwordHash, err := authkit.HashPassword("versepass123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := data.FormatTime(time.Now().UTC())
	var poetIDs []string

	for i, penName := range demoPoets {
		email := fmt.Sprintf("poet%d@example.com", i+1)

		existing, err := store.Select(ctx, data.Query{
			Table:   data.TableAccounts,
			Filters: []data.Filter{data.Eq("email_lower", email)},
		})
		if err != nil {
			log.Printf("  Failed to look up %s: %v", email, err)
			continue
		}
		if len(existing) > 0 {
			if idVal, ok := existing[0]["id"].(string); ok {
				fmt.Printf("  Poet %s already exists, skipping\n", email)
				poetIDs = append(poetIDs, idVal)
			}
			continue
		}

		userID := id.MustGenerate(id.PrefixUser)
		account := data.Row{
			"id":            userID,
			"email":         email,
			"email_lower":   email,
			"password_hash": passwordHash,
			"confirmed":     1,
			"pen_name":      penName,
			"created_at":    now,
			"updated_at":    now,
		}
		if err := store.Insert(ctx, data.TableAccounts, account); err != nil {
			log.Printf("  Failed to create account %s: %v", email, err)
			continue
		}

		profile := data.Row{
			"id":           userID,
			"pen_name":     penName,
			"pen_name_key": normalize.PenNameKey(penName),
			"bio":          fmt.Sprintf("Writing as %s.", penName),
			"created_at":   now,
			"updated_at":   now,
		}
		if err := store.Insert(ctx, data.TableProfiles, profile); err != nil {
			log.Printf("  Failed to create profile for %s: %v", penName, err)
			continue
		}

		fmt.Printf("  Created poet: %s (%s)\n", penName, email)
		poetIDs = append(poetIDs, userID)
	}

	return poetIDs
}

// publishDemoPoems writes poems for each poet, spread over the past two
// weeks so the feed ordering is visible. Returns the poem IDs.
func publishDemoPoems(ctx context.Context, store *sqlite.Store, rng *rand.Rand, poetIDs []string) []string {
	fmt.Println("\n=== Publishing Demo Poems ===")

	now := time.Now().UTC()
	var poemIDs []string

	for _, poetID := range poetIDs {
		for range *poemsPerPoet {
			createdAt := now.AddDate(0, 0, -rng.Intn(14)).
				Add(-time.Duration(rng.Intn(720)) * time.Minute)

			lines := make([]string, 0, 4)
			for _, j := range rng.Perm(len(demoLines))[:4] {
				lines = append(lines, demoLines[j])
			}

			stamp := data.FormatTime(createdAt)
			poemID := id.MustGenerate(id.PrefixPoem)
			poem := data.Row{
				"id":         poemID,
				"title":      demoTitles[rng.Intn(len(demoTitles))],
				"content":    strings.Join(lines, "\n"),
				"author_id":  poetID,
				"created_at": stamp,
				"updated_at": stamp,
			}
			if err := store.Insert(ctx, data.TablePoems, poem); err != nil {
				log.Printf("  Failed to publish poem: %v", err)
				continue
			}
			poemIDs = append(poemIDs, poemID)
		}
	}

	fmt.Printf("  Published %d poems\n", len(poemIDs))
	return poemIDs
}

// sprinkleEngagement adds likes, comments, and follows between the demo
// poets. Duplicate edges are skipped quietly.
func sprinkleEngagement(ctx context.Context, store *sqlite.Store, rng *rand.Rand, poetIDs, poemIDs []string) {
	fmt.Println("\n=== Adding Engagement ===")

	now := data.FormatTime(time.Now().UTC())
	likes, comments, follows := 0, 0, 0

	for _, poemID := range poemIDs {
		for _, poetID := range poetIDs {
			// Roughly half the poets like any given poem.
			if rng.Float32() > 0.5 {
				continue
			}
			like := data.Row{
				"id":         id.MustGenerate(id.PrefixLike),
				"poem_id":    poemID,
				"user_id":    poetID,
				"created_at": now,
			}
			if err := store.Insert(ctx, data.TableLikes, like); err == nil {
				likes++
			}
		}

		if rng.Float32() < 0.6 {
			author := poetIDs[rng.Intn(len(poetIDs))]
			comment := data.Row{
				"id":         id.MustGenerate(id.PrefixComment),
				"poem_id":    poemID,
				"author_id":  author,
				"content":    demoComments[rng.Intn(len(demoComments))],
				"created_at": now,
				"updated_at": now,
			}
			if err := store.Insert(ctx, data.TableComments, comment); err == nil {
				comments++
			}
		}
	}

	for _, follower := range poetIDs {
		for _, following := range poetIDs {
			if follower == following || rng.Float32() > 0.4 {
				continue
			}
			edge := data.Row{
				"id":           id.MustGenerate(id.PrefixFollow),
				"follower_id":  follower,
				"following_id": following,
				"created_at":   now,
			}
			if err := store.Insert(ctx, data.TableFollowers, edge); err == nil {
				follows++
			}
		}
	}

	fmt.Printf("  Created %d likes, %d comments, %d follows\n", likes, comments, follows)
}
