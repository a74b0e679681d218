package utterance

import (
	"fmt"
	"sort"
	"strings"
)

// Store owns the ordered record collection of one dubbing run. Records stay
// sorted by Start; overlapping intervals from different speakers are kept as
// separate records.
type Store struct {
	records []Record
}

// NewStore builds a store from diarized intervals.
func NewStore(intervals []Interval) (*Store, error) {
	records := make([]Record, 0, len(intervals))
	for _, interval := range intervals {
		if err := interval.Validate(); err != nil {
			return nil, err
		}
		records = append(records, FromInterval(interval))
	}
	return newSorted(records), nil
}

// Restore rebuilds a store from records persisted by an earlier run.
func Restore(records []Record) (*Store, error) {
	copied := make([]Record, len(records))
	copy(copied, records)
	for _, record := range copied {
		if err := record.Interval().Validate(); err != nil {
			return nil, err
		}
		if err := record.CheckDubbed(); err != nil {
			return nil, err
		}
	}
	return newSorted(copied), nil
}

func newSorted(records []Record) *Store {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Start < records[j].Start })
	return &Store{records: records}
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns a copy of the collection in Start order.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Intervals returns the timing view of every record.
func (s *Store) Intervals() []Interval {
	out := make([]Interval, len(s.records))
	for i, record := range s.records {
		out[i] = record.Interval()
	}
	return out
}

// Get returns the record at index i.
func (s *Store) Get(i int) Record {
	return s.records[i]
}

// Dubbed returns the records that carry synthesized audio.
func (s *Store) Dubbed() []Record {
	var out []Record
	for _, record := range s.records {
		if record.ForDubbing {
			out = append(out, record)
		}
	}
	return out
}

// Speakers returns the distinct speaker labels in first-appearance order.
func (s *Store) Speakers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, record := range s.records {
		if _, ok := seen[record.SpeakerID]; ok {
			continue
		}
		seen[record.SpeakerID] = struct{}{}
		out = append(out, record.SpeakerID)
	}
	return out
}

func (s *Store) at(i int) (*Record, error) {
	if i < 0 || i >= len(s.records) {
		return nil, fmt.Errorf("utterance index %d out of range (0..%d)", i, len(s.records)-1)
	}
	return &s.records[i], nil
}

// SetPath records the chunk cut for record i.
func (s *Store) SetPath(i int, path string) error {
	record, err := s.at(i)
	if err != nil {
		return err
	}
	record.Path = path
	return nil
}

// SetText records the transcript for record i.
func (s *Store) SetText(i int, text string) error {
	record, err := s.at(i)
	if err != nil {
		return err
	}
	record.Text = strings.TrimSpace(text)
	return nil
}

// SetTranslation records the translated text for record i. Earlier dubbing
// results are cleared since they no longer match the text.
func (s *Store) SetTranslation(i int, translation string) error {
	record, err := s.at(i)
	if err != nil {
		return err
	}
	record.Translation = strings.TrimSpace(translation)
	record.ForDubbing = false
	record.DubbedPath = ""
	return nil
}

// MarkDubbed attaches synthesized audio to record i.
func (s *Store) MarkDubbed(i int, dubbedPath, voice, gender string) error {
	record, err := s.at(i)
	if err != nil {
		return err
	}
	if strings.TrimSpace(dubbedPath) == "" {
		return &MissingDubbedAudioError{Start: record.Start, End: record.End, SpeakerID: record.SpeakerID}
	}
	record.ForDubbing = true
	record.DubbedPath = dubbedPath
	record.Voice = voice
	record.Gender = gender
	return nil
}

// MarkPassThrough keeps the original audio for record i.
func (s *Store) MarkPassThrough(i int) error {
	record, err := s.at(i)
	if err != nil {
		return err
	}
	record.ForDubbing = false
	record.DubbedPath = ""
	return nil
}
