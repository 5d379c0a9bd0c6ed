package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apimgr/tripplanner/src/utils"
)

type seedCity struct {
	name        string
	country     string
	description string
	latitude    float64
	longitude   float64
	popularity  float64
	activities  []seedActivity
}

type seedActivity struct {
	name        string
	description string
	category    string
	duration    float64
	costMin     float64
	costMax     float64
	rating      float64
}

// seedCities is the starter destination catalog inserted on first run
var seedCities = []seedCity{
	{
		name: "Paris", country: "France",
		description: "The City of Light, home to world-class museums, cafes and architecture",
		latitude:    48.8566, longitude: 2.3522, popularity: 9.5,
		activities: []seedActivity{
			{"Eiffel Tower Visit", "Skip-the-line access to the summit", "activity", 3, 30, 60, 4.7},
			{"Louvre Museum", "Guided tour of the world's largest art museum", "activity", 4, 20, 55, 4.8},
			{"Seine Dinner Cruise", "Evening cruise with a three-course dinner", "restaurant", 2.5, 70, 150, 4.5},
			{"Montmartre Walking Tour", "Artists' quarter and Sacre-Coeur on foot", "activity", 2, 0, 25, 4.6},
		},
	},
	{
		name: "Tokyo", country: "Japan",
		description: "A dense, electric capital balancing tradition and neon-lit modernity",
		latitude:    35.6762, longitude: 139.6503, popularity: 9.3,
		activities: []seedActivity{
			{"Tsukiji Outer Market Tour", "Street food crawl through the old fish market", "restaurant", 3, 40, 90, 4.8},
			{"Senso-ji Temple", "Tokyo's oldest temple in Asakusa", "activity", 1.5, 0, 0, 4.6},
			{"Shinjuku Night Walk", "Golden Gai and Omoide Yokocho after dark", "activity", 2.5, 0, 30, 4.5},
			{"Shibuya Sky Observatory", "Open-air rooftop above the scramble crossing", "activity", 1.5, 15, 20, 4.7},
		},
	},
	{
		name: "New York", country: "United States",
		description: "The city that never sleeps, from Central Park to Broadway",
		latitude:    40.7128, longitude: -74.0060, popularity: 9.4,
		activities: []seedActivity{
			{"Statue of Liberty Ferry", "Ferry to Liberty Island and Ellis Island", "activity", 4, 25, 45, 4.5},
			{"Broadway Show", "Evening performance in the Theater District", "activity", 3, 80, 250, 4.8},
			{"Metropolitan Museum of Art", "Self-guided visit to the Met", "activity", 3.5, 30, 30, 4.8},
			{"Brooklyn Bridge Walk", "Cross from Manhattan to DUMBO on foot", "activity", 1.5, 0, 0, 4.7},
		},
	},
	{
		name: "Rome", country: "Italy",
		description: "Ancient ruins, Renaissance art and the best carbonara on earth",
		latitude:    41.9028, longitude: 12.4964, popularity: 9.1,
		activities: []seedActivity{
			{"Colosseum and Forum", "Combined ticket with arena floor access", "activity", 3.5, 25, 60, 4.8},
			{"Vatican Museums", "Sistine Chapel and St. Peter's Basilica", "activity", 4, 30, 75, 4.7},
			{"Trastevere Food Tour", "Evening tasting walk across the river", "restaurant", 3, 60, 110, 4.8},
		},
	},
	{
		name: "Barcelona", country: "Spain",
		description: "Gaudi's fever-dream architecture beside Mediterranean beaches",
		latitude:    41.3851, longitude: 2.1734, popularity: 8.9,
		activities: []seedActivity{
			{"Sagrada Familia", "Timed entry with tower access", "activity", 2, 26, 46, 4.9},
			{"Park Guell", "Gaudi's mosaic park above the city", "activity", 2, 10, 18, 4.6},
			{"Boqueria Market Tapas", "Tapas and vermouth in the covered market", "restaurant", 2, 30, 70, 4.5},
		},
	},
	{
		name: "London", country: "United Kingdom",
		description: "Royal palaces, free museums and pubs on every corner",
		latitude:    51.5074, longitude: -0.1278, popularity: 9.2,
		activities: []seedActivity{
			{"Tower of London", "Crown Jewels and Yeoman Warder tour", "activity", 3, 30, 40, 4.7},
			{"British Museum", "Free entry to the world collection", "activity", 3, 0, 0, 4.8},
			{"West End Theatre", "Evening show in Theatreland", "activity", 3, 50, 180, 4.7},
		},
	},
	{
		name: "Bangkok", country: "Thailand",
		description: "Gilded temples, canal boats and legendary street food",
		latitude:    13.7563, longitude: 100.5018, popularity: 8.7,
		activities: []seedActivity{
			{"Grand Palace", "Emerald Buddha and royal compound", "activity", 3, 15, 15, 4.6},
			{"Chao Phraya Boat Tour", "Longtail boat through the klongs", "transport", 2, 20, 50, 4.5},
			{"Chinatown Street Food", "Yaowarat night market crawl", "restaurant", 3, 15, 40, 4.8},
		},
	},
	{
		name: "Sydney", country: "Australia",
		description: "Harbour city of surf beaches and sandstone headlands",
		latitude:    -33.8688, longitude: 151.2093, popularity: 8.5,
		activities: []seedActivity{
			{"Opera House Tour", "Backstage tour of the sails", "activity", 1.5, 30, 45, 4.6},
			{"Bondi to Coogee Walk", "Clifftop coastal walk between beaches", "activity", 2.5, 0, 0, 4.8},
			{"Harbour Bridge Climb", "Summit climb over the harbour", "activity", 3.5, 200, 300, 4.7},
		},
	},
	{
		name: "Cape Town", country: "South Africa",
		description: "Table Mountain, winelands and two oceans meeting",
		latitude:    -33.9249, longitude: 18.4241, popularity: 8.2,
		activities: []seedActivity{
			{"Table Mountain Cableway", "Rotating cable car to the plateau", "activity", 2.5, 20, 30, 4.7},
			{"Cape Peninsula Day Trip", "Chapman's Peak, penguins and Cape Point", "transport", 8, 60, 120, 4.8},
			{"V&A Waterfront Dinner", "Harbourside seafood restaurants", "restaurant", 2, 25, 80, 4.4},
		},
	},
	{
		name: "Rio de Janeiro", country: "Brazil",
		description: "Beaches, samba and granite peaks wrapped in rainforest",
		latitude:    -22.9068, longitude: -43.1729, popularity: 8.4,
		activities: []seedActivity{
			{"Christ the Redeemer", "Cog train up Corcovado", "activity", 3, 30, 50, 4.7},
			{"Sugarloaf Cable Car", "Two-stage cable car at sunset", "activity", 2, 25, 40, 4.8},
			{"Copacabana Beach Day", "Beach chairs, caipirinhas and footvolley", "activity", 4, 0, 30, 4.5},
		},
	},
}

// SeedCatalog inserts the starter city and activity catalog when the
// cities table is empty. Safe to call on every start.
func (d *DB) SeedCatalog(ctx context.Context) error {
	var count int
	if err := QueryRowContext(ctx, d.DB, TimeoutSimpleSelect, "SELECT COUNT(*) FROM cities").Scan(&count); err != nil {
		return fmt.Errorf("failed to check city catalog: %w", err)
	}
	if count > 0 {
		return nil
	}

	return WithTransaction(ctx, d.DB, func(tx *sql.Tx) error {
		for _, c := range seedCities {
			res, err := tx.Exec(`
				INSERT INTO cities (name, country, description, latitude, longitude, popularity_score)
				VALUES (?, ?, ?, ?, ?, ?)`,
				c.name, c.country, c.description, c.latitude, c.longitude, c.popularity)
			if err != nil {
				return fmt.Errorf("failed to seed city %s: %w", c.name, err)
			}
			cityID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read seeded city id: %w", err)
			}
			for _, a := range c.activities {
				_, err := tx.Exec(`
					INSERT INTO activities (city_id, name, description, category, duration_hours, cost_min, cost_max, rating)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
					cityID, a.name, a.description, a.category, a.duration, a.costMin, a.costMax, a.rating)
				if err != nil {
					return fmt.Errorf("failed to seed activity %s: %w", a.name, err)
				}
			}
		}
		return nil
	})
}

// BootstrapAdmin creates the initial admin account when credentials are
// configured and the address is not taken yet.
func (d *DB) BootstrapAdmin(ctx context.Context, email, password, fullName string) error {
	if email == "" || password == "" {
		return nil
	}

	email = utils.NormalizeEmail(email)

	var count int
	err := QueryRowContext(ctx, d.DB, TimeoutSimpleSelect,
		"SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check admin account: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if fullName == "" {
		fullName = "Administrator"
	}

	_, err = ExecContext(ctx, d.DB, TimeoutWrite,
		"INSERT INTO users (email, full_name, password_hash, role) VALUES (?, ?, ?, 'admin')",
		email, fullName, hash)
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	return nil
}
