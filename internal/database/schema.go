package database

// schemaStatements create the reservation tables. Bookings are stored once;
// booking_seats is the per-seat ledger index and seat_occupancy the fast
// occupancy index. Both cascade with their trip.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS trips (
		id          BIGINT PRIMARY KEY,
		name        TEXT NOT NULL,
		source      TEXT NOT NULL,
		destination TEXT NOT NULL,
		departure   TEXT NOT NULL,
		arrival     TEXT NOT NULL,
		price       NUMERIC(12,2) NOT NULL CHECK (price > 0),
		capacity    INTEGER NOT NULL CHECK (capacity > 0),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_id             UUID PRIMARY KEY,
		trip_id                BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		trip_date              DATE NOT NULL,
		user_identity          TEXT NOT NULL,
		passenger_name         TEXT NOT NULL,
		passenger_phone        TEXT NOT NULL,
		passenger_email        TEXT NOT NULL,
		passenger_age          INTEGER NOT NULL DEFAULT 0,
		passenger_gender       TEXT NOT NULL DEFAULT '',
		seats                  TEXT[] NOT NULL,
		amount                 NUMERIC(12,2) NOT NULL,
		transaction_id         TEXT NOT NULL,
		payment_screenshot_ref TEXT,
		pickup_location        TEXT,
		drop_location          TEXT,
		created_at             TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_identity ON bookings(user_identity)`,
	`CREATE TABLE IF NOT EXISTS seat_occupancy (
		trip_id    BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		trip_date  DATE NOT NULL,
		seat_label TEXT NOT NULL,
		PRIMARY KEY (trip_id, trip_date, seat_label)
	)`,
	`CREATE TABLE IF NOT EXISTS booking_seats (
		trip_id    BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		trip_date  DATE NOT NULL,
		seat_label TEXT NOT NULL,
		booking_id UUID NOT NULL REFERENCES bookings(booking_id) ON DELETE CASCADE,
		PRIMARY KEY (trip_id, trip_date, seat_label)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_booking_seats_booking_id ON booking_seats(booking_id)`,
}
