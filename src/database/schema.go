package database

// SchemaVersion is bumped whenever the DDL below changes shape
const SchemaVersion = 1

// Schema holds the full DDL. Statements use CREATE IF NOT EXISTS so the
// block is safe to replay on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	full_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	avatar_path TEXT,
	role TEXT NOT NULL DEFAULT 'user' CHECK(role IN ('user', 'admin')),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	last_login DATETIME
);

CREATE TABLE IF NOT EXISTS cities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	country TEXT NOT NULL,
	country_code TEXT,
	description TEXT,
	image_url TEXT,
	latitude REAL,
	longitude REAL,
	cost_index REAL,
	popularity_score REAL NOT NULL DEFAULT 0 CHECK(popularity_score >= 0),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(name, country)
);

CREATE TABLE IF NOT EXISTS activities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	city_id INTEGER NOT NULL REFERENCES cities(id),
	name TEXT NOT NULL,
	description TEXT,
	category TEXT NOT NULL DEFAULT 'activity' CHECK(category IN ('flight', 'hotel', 'activity', 'restaurant', 'transport', 'other')),
	duration_hours REAL,
	cost_min REAL,
	cost_max REAL,
	rating REAL CHECK(rating IS NULL OR (rating >= 0 AND rating <= 5)),
	image_url TEXT,
	website_url TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	CHECK(cost_min IS NULL OR cost_max IS NULL OR cost_min <= cost_max)
);

CREATE TABLE IF NOT EXISTS trips (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT,
	start_date TEXT,
	end_date TEXT,
	budget REAL CHECK(budget IS NULL OR budget >= 0),
	status TEXT NOT NULL DEFAULT 'planning' CHECK(status IN ('planning', 'active', 'completed', 'cancelled')),
	is_public BOOLEAN NOT NULL DEFAULT 0,
	public_url TEXT UNIQUE,
	cover_photo_path TEXT,
	featured BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trip_cities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trip_id INTEGER NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
	city_id INTEGER NOT NULL REFERENCES cities(id),
	arrival_date TEXT,
	departure_date TEXT,
	order_index INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(trip_id, city_id)
);

CREATE TABLE IF NOT EXISTS itinerary_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trip_id INTEGER NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
	city_id INTEGER REFERENCES cities(id),
	activity_id INTEGER REFERENCES activities(id),
	title TEXT NOT NULL,
	description TEXT,
	start_time TEXT,
	end_time TEXT,
	location TEXT,
	cost REAL CHECK(cost IS NULL OR cost >= 0),
	category TEXT NOT NULL DEFAULT 'activity',
	booking_reference TEXT,
	notes TEXT,
	order_index INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS password_resets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token_hash TEXT UNIQUE NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	expires_at DATETIME NOT NULL,
	used_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_cities_country ON cities(country);
CREATE INDEX IF NOT EXISTS idx_cities_popularity ON cities(popularity_score);
CREATE INDEX IF NOT EXISTS idx_activities_city ON activities(city_id);
CREATE INDEX IF NOT EXISTS idx_activities_category ON activities(category);
CREATE INDEX IF NOT EXISTS idx_trips_user ON trips(user_id);
CREATE INDEX IF NOT EXISTS idx_trips_status ON trips(status);
CREATE INDEX IF NOT EXISTS idx_trips_public_url ON trips(public_url);
CREATE INDEX IF NOT EXISTS idx_trip_cities_trip ON trip_cities(trip_id);
CREATE INDEX IF NOT EXISTS idx_trip_cities_city ON trip_cities(city_id);
CREATE INDEX IF NOT EXISTS idx_itinerary_trip ON itinerary_items(trip_id);
CREATE INDEX IF NOT EXISTS idx_itinerary_start ON itinerary_items(start_time);
CREATE INDEX IF NOT EXISTS idx_password_resets_user ON password_resets(user_id);
`

// migrations maps a schema version to the statements that upgrade the
// previous version to it. Version 1 is the base schema above.
var migrations = map[int][]string{}
