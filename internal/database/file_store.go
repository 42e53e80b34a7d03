package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/smarttransit/seat-reservation/internal/models"
)

var errReadOnly = errors.New("write attempted in a read-only view")

// tripDocument is the persisted layout of one trip in the data file
type tripDocument struct {
	ID               int64                                      `json:"id"`
	Name             string                                     `json:"name"`
	Source           string                                     `json:"source"`
	Destination      string                                     `json:"destination"`
	Departure        string                                     `json:"departure"`
	Arrival          string                                     `json:"arrival"`
	Price            float64                                    `json:"price"`
	AvailableSeats   int                                        `json:"available_seats"`
	DateBookings     map[string][]string                        `json:"date_bookings,omitempty"`
	DetailedBookings map[string]map[string]models.BookingRecord `json:"detailed_bookings,omitempty"`
}

func (d *tripDocument) trip() models.Trip {
	return models.Trip{
		ID:          d.ID,
		Name:        d.Name,
		Source:      d.Source,
		Destination: d.Destination,
		Departure:   d.Departure,
		Arrival:     d.Arrival,
		Price:       d.Price,
		Capacity:    d.AvailableSeats,
	}
}

// FileStore keeps every trip in one JSON document on disk.
// Update holds a process-wide lock across read, mutate and write; the write goes
// to a temp file that is fsynced and renamed over the original, so readers and a
// crash mid-write only ever see a complete document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (and creates the directory for) a JSON data file
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("data file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the data file location
func (s *FileStore) Path() string {
	return s.path
}

// View runs fn against the document currently on disk
func (s *FileStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	docs, err := s.load()
	if err != nil {
		return err
	}
	return fn(&fileTx{docs: docs, readOnly: true})
}

// Update runs fn on a fresh copy of the document and writes it back if fn succeeds
func (s *FileStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	docs, err := s.load()
	if err != nil {
		return err
	}

	tx := &fileTx{docs: docs}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	if err := s.save(tx.docs); err != nil {
		return &models.StoreError{Op: "write data file", Err: err}
	}
	return nil
}

// Ping checks the data file is readable
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := s.load()
	return err
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() ([]*tripDocument, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*tripDocument{}, nil
	}
	if err != nil {
		return nil, &models.StoreError{Op: "read data file", Err: err}
	}
	if len(data) == 0 {
		return []*tripDocument{}, nil
	}

	var docs []*tripDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, &models.StoreError{Op: "decode data file", Err: err}
	}
	return docs, nil
}

func (s *FileStore) save(docs []*tripDocument) error {
	data, err := json.MarshalIndent(docs, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

// fileTx operates on an in-memory copy of the document
type fileTx struct {
	docs     []*tripDocument
	readOnly bool
	dirty    bool
}

func (tx *fileTx) write() error {
	if tx.readOnly {
		return errReadOnly
	}
	tx.dirty = true
	return nil
}

func (tx *fileTx) find(id int64) *tripDocument {
	for _, d := range tx.docs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (tx *fileTx) mustFind(id int64) (*tripDocument, error) {
	doc := tx.find(id)
	if doc == nil {
		return nil, fmt.Errorf("trip %d: %w", id, models.ErrNotFound)
	}
	return doc, nil
}

func (tx *fileTx) ListTrips() ([]models.Trip, error) {
	trips := make([]models.Trip, 0, len(tx.docs))
	for _, d := range tx.docs {
		trips = append(trips, d.trip())
	}
	return trips, nil
}

func (tx *fileTx) GetTrip(id int64) (*models.Trip, error) {
	doc, err := tx.mustFind(id)
	if err != nil {
		return nil, err
	}
	trip := doc.trip()
	return &trip, nil
}

func (tx *fileTx) InsertTrip(trip *models.Trip) error {
	if err := tx.write(); err != nil {
		return err
	}
	var maxID int64
	for _, d := range tx.docs {
		if d.ID > maxID {
			maxID = d.ID
		}
	}
	trip.ID = maxID + 1
	tx.docs = append(tx.docs, &tripDocument{
		ID:             trip.ID,
		Name:           trip.Name,
		Source:         trip.Source,
		Destination:    trip.Destination,
		Departure:      trip.Departure,
		Arrival:        trip.Arrival,
		Price:          trip.Price,
		AvailableSeats: trip.Capacity,
	})
	return nil
}

func (tx *fileTx) DeleteTrip(id int64) (bool, error) {
	if err := tx.write(); err != nil {
		return false, err
	}
	for i, d := range tx.docs {
		if d.ID == id {
			tx.docs = append(tx.docs[:i], tx.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (tx *fileTx) OccupiedSeats(tripID int64, date string) ([]string, error) {
	doc, err := tx.mustFind(tripID)
	if err != nil {
		return nil, err
	}
	seats := append([]string{}, doc.DateBookings[date]...)
	return seats, nil
}

func (tx *fileTx) OccupancyByDate(tripID int64) (map[string][]string, error) {
	doc, err := tx.mustFind(tripID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(doc.DateBookings))
	for date, seats := range doc.DateBookings {
		out[date] = append([]string{}, seats...)
	}
	return out, nil
}

func (tx *fileTx) AddOccupied(tripID int64, date string, labels []string) error {
	if err := tx.write(); err != nil {
		return err
	}
	doc, err := tx.mustFind(tripID)
	if err != nil {
		return err
	}
	if doc.DateBookings == nil {
		doc.DateBookings = make(map[string][]string)
	}
	doc.DateBookings[date] = append(doc.DateBookings[date], labels...)
	return nil
}

func (tx *fileTx) RemoveOccupied(tripID int64, date, label string) (bool, error) {
	if err := tx.write(); err != nil {
		return false, err
	}
	doc := tx.find(tripID)
	if doc == nil {
		return false, nil
	}
	seats := doc.DateBookings[date]
	kept := seats[:0]
	removed := false
	for _, s := range seats {
		if s == label {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		delete(doc.DateBookings, date)
	} else {
		doc.DateBookings[date] = kept
	}
	return removed, nil
}

func (tx *fileTx) ReplaceOccupied(tripID int64, date string, labels []string) error {
	if err := tx.write(); err != nil {
		return err
	}
	doc, err := tx.mustFind(tripID)
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		delete(doc.DateBookings, date)
		return nil
	}
	if doc.DateBookings == nil {
		doc.DateBookings = make(map[string][]string)
	}
	doc.DateBookings[date] = append([]string{}, labels...)
	return nil
}

func (tx *fileTx) PutSeatBooking(tripID int64, date, label string, record *models.BookingRecord) error {
	if err := tx.write(); err != nil {
		return err
	}
	doc, err := tx.mustFind(tripID)
	if err != nil {
		return err
	}
	if doc.DetailedBookings == nil {
		doc.DetailedBookings = make(map[string]map[string]models.BookingRecord)
	}
	if doc.DetailedBookings[date] == nil {
		doc.DetailedBookings[date] = make(map[string]models.BookingRecord)
	}
	doc.DetailedBookings[date][label] = *record
	return nil
}

func (tx *fileTx) GetSeatBooking(tripID int64, date, label string) (*models.BookingRecord, error) {
	doc, err := tx.mustFind(tripID)
	if err != nil {
		return nil, err
	}
	record, ok := doc.DetailedBookings[date][label]
	if !ok {
		return nil, fmt.Errorf("seat %s on %s: %w", label, date, models.ErrNotFound)
	}
	return &record, nil
}

func (tx *fileTx) SeatBookings(tripID int64, date string) (map[string]models.BookingRecord, error) {
	doc, err := tx.mustFind(tripID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.BookingRecord, len(doc.DetailedBookings[date]))
	for label, record := range doc.DetailedBookings[date] {
		out[label] = record
	}
	return out, nil
}

func (tx *fileTx) LedgerDates(tripID int64) ([]string, error) {
	doc, err := tx.mustFind(tripID)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(doc.DetailedBookings))
	for date := range doc.DetailedBookings {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

func (tx *fileTx) DeleteSeatBooking(tripID int64, date, label string) (bool, error) {
	if err := tx.write(); err != nil {
		return false, err
	}
	doc := tx.find(tripID)
	if doc == nil {
		return false, nil
	}
	seats, ok := doc.DetailedBookings[date]
	if !ok {
		return false, nil
	}
	if _, ok := seats[label]; !ok {
		return false, nil
	}
	delete(seats, label)
	if len(seats) == 0 {
		delete(doc.DetailedBookings, date)
	}
	return true, nil
}

func (tx *fileTx) BookingsForUser(userIdentity string) ([]models.BookingRecord, error) {
	var records []models.BookingRecord
	for _, doc := range tx.docs {
		for _, seats := range doc.DetailedBookings {
			for _, record := range seats {
				if record.UserIdentity == userIdentity {
					records = append(records, record)
				}
			}
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].BookingID < records[j].BookingID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return models.UniqueBookings(records), nil
}
