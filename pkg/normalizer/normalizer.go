// Package normalizer turns inbound payloads into batches and batches into the
// ordered list of object keys they carry.
package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/manifest"
)

const ScheduledTriggerTag = "eventbridge"

const (
	ReasonInvalidJSON = "invalid_json"
	ReasonMissingKey  = "missing_key"
	ReasonUnusableKey = "unusable_key"
	ReasonEmptyRecord = "empty_record"
	recordIDFormat    = "record-%d"
)

// Fields are decoded one at a time so a badly typed record does not take the
// rest of the payload with it.
type inboundEvent struct {
	TriggeredBy json.RawMessage `json:"triggeredBy"`
	Records     json.RawMessage `json:"Records"`
}

type inboundRecord struct {
	MessageID json.RawMessage `json:"messageId"`
	Body      json.RawMessage `json:"body"`
}

type objectCreatedEvent struct {
	Detail *struct {
		Object *struct {
			Key *string `json:"key"`
		} `json:"object"`
	} `json:"detail"`
}

type Result struct {
	Kind    domain.BatchKind
	Keys    []string
	Skipped []*domain.MalformedRecordError
}

// ParseEvent never fails: a payload that cannot be understood becomes an empty
// notification batch, which the coordinator treats as a no-op. Records that
// cannot be decoded are kept, carrying the error, so Normalize reports them.
func ParseEvent(payload []byte) domain.Batch {
	event := &inboundEvent{}
	err := json.Unmarshal(payload, event)
	if err != nil {
		return domain.NotificationBatch()
	}

	var triggeredBy string
	if json.Unmarshal(event.TriggeredBy, &triggeredBy) == nil && triggeredBy == ScheduledTriggerTag {
		return domain.ScheduledBatch()
	}

	var rawRecords []json.RawMessage
	if len(event.Records) == 0 || json.Unmarshal(event.Records, &rawRecords) != nil {
		return domain.NotificationBatch()
	}

	records := make([]domain.Record, 0, len(rawRecords))
	for idx, raw := range rawRecords {
		records = append(records, parseRecord(raw, idx))
	}

	return domain.NotificationBatch(records...)
}

func parseRecord(raw json.RawMessage, idx int) domain.Record {
	rec := domain.Record{ID: fmt.Sprintf(recordIDFormat, idx)}

	inbound := &inboundRecord{}
	err := json.Unmarshal(raw, inbound)
	if err != nil {
		rec.DecodeErr = fmt.Errorf("decoding record: %w", err)
		return rec
	}

	if id := recordID(inbound.MessageID); id != "" {
		rec.ID = id
	}

	if isAbsent(inbound.Body) {
		return rec
	}

	var body string
	err = json.Unmarshal(inbound.Body, &body)
	if err != nil {
		rec.DecodeErr = fmt.Errorf("record body is not a string: %w", err)
		return rec
	}
	rec.Body = []byte(body)

	return rec
}

// recordID accepts string and numeric message ids.
func recordID(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}

	var id string
	if json.Unmarshal(raw, &id) == nil {
		return id
	}

	var number json.Number
	if json.Unmarshal(raw, &number) == nil {
		return number.String()
	}
	return ""
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

type Normalizer struct {
	skipper domain.RecordSkipper
}

func New(skipper domain.RecordSkipper) *Normalizer {
	return &Normalizer{skipper: skipper}
}

func (n *Normalizer) Normalize(batch domain.Batch) Result {
	result := Result{Kind: batch.Kind, Keys: make([]string, 0, len(batch.Records))}
	if batch.Kind == domain.BatchKindScheduled {
		return result
	}

	for idx, rec := range batch.Records {
		key, recErr := extractKey(rec, idx)
		if recErr != nil {
			result.Skipped = append(result.Skipped, recErr)
			if n.skipper != nil {
				n.skipper.Skip(recErr)
			}
			continue
		}
		result.Keys = append(result.Keys, key)
	}

	return result
}

func extractKey(rec domain.Record, idx int) (string, *domain.MalformedRecordError) {
	id := rec.ID
	if id == "" {
		id = strconv.Itoa(idx)
	}

	if rec.DecodeErr != nil {
		return "", &domain.MalformedRecordError{RecordID: id, Reason: ReasonInvalidJSON, Err: rec.DecodeErr}
	}

	if len(bytes.TrimSpace(rec.Body)) == 0 {
		return "", &domain.MalformedRecordError{RecordID: id, Reason: ReasonEmptyRecord}
	}

	event := &objectCreatedEvent{}
	err := json.Unmarshal(rec.Body, event)
	if err != nil {
		return "", &domain.MalformedRecordError{RecordID: id, Reason: ReasonInvalidJSON, Err: err}
	}

	if event.Detail == nil || event.Detail.Object == nil || event.Detail.Object.Key == nil {
		return "", &domain.MalformedRecordError{RecordID: id, Reason: ReasonMissingKey}
	}

	key := *event.Detail.Object.Key
	_, err = manifest.NewToken(key)
	if err != nil {
		reason := ReasonUnusableKey
		if errors.Is(err, manifest.ErrEmptyKey) {
			reason = ReasonMissingKey
		}
		return "", &domain.MalformedRecordError{RecordID: id, Reason: reason, Err: err}
	}

	return key, nil
}
