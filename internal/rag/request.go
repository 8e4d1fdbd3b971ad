package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Action string

const (
	ActionIngestHealthProfile Action = "ingest_health_profile"
	ActionIngestTrackData     Action = "ingest_track_data"
	ActionIngestImage         Action = "ingest_image"
	ActionRetrieveUserData    Action = "retrieve_user_data"
	ActionCheckUserData       Action = "check_user_data"
	ActionCaptionImage        Action = "caption_image"
	ActionHealthCheck         Action = "health_check"
	// ActionTrackEvent is the body shape {type, data, include_image} sent by
	// tracking screens; it has no action name of its own.
	ActionTrackEvent Action = "track_event"
)

var (
	ErrMissingAction = errors.New("rag: no action or type specified")
	ErrUnknownAction = errors.New("rag: invalid action")
)

// Request is one of the variant types in this file. The unexported method
// keeps the set closed: every variant dispatches to its own handler method,
// so a new variant does not compile until handler grows a method for it.
type Request interface {
	Action() Action
	dispatch(h handler) (json.RawMessage, error)
}

type IngestHealthProfile struct {
	ProfileText string `json:"profile_text" validate:"required"`
}

type IngestTrackData struct {
	TrackText   string `json:"track_text" validate:"required"`
	HasImage    bool   `json:"has_image"`
	ContentType string `json:"content_type"`
}

type IngestImage struct {
	ImageData   string `json:"image_data" validate:"required,base64"`
	ContentType string `json:"content_type"`
}

type RetrieveUserData struct {
	Query    string `json:"query" validate:"required"`
	NResults int    `json:"n_results" validate:"omitempty,min=1,max=50"`
}

type CheckUserData struct{}

type CaptionImage struct {
	ImageData   string `json:"image_data" validate:"required,base64"`
	ContentType string `json:"content_type"`
}

type HealthCheck struct{}

// TrackEvent is ingested as track history; Data becomes "key: value" lines.
type TrackEvent struct {
	Type         string         `json:"type"`
	Data         map[string]any `json:"data"`
	IncludeImage bool           `json:"include_image"`
}

func (IngestHealthProfile) Action() Action { return ActionIngestHealthProfile }
func (IngestTrackData) Action() Action     { return ActionIngestTrackData }
func (IngestImage) Action() Action         { return ActionIngestImage }
func (RetrieveUserData) Action() Action    { return ActionRetrieveUserData }
func (CheckUserData) Action() Action       { return ActionCheckUserData }
func (CaptionImage) Action() Action        { return ActionCaptionImage }
func (HealthCheck) Action() Action         { return ActionHealthCheck }
func (TrackEvent) Action() Action          { return ActionTrackEvent }

func (r IngestHealthProfile) dispatch(h handler) (json.RawMessage, error) {
	return h.ingestHealthProfile(r)
}
func (r IngestTrackData) dispatch(h handler) (json.RawMessage, error) { return h.ingestTrackData(r) }
func (r IngestImage) dispatch(h handler) (json.RawMessage, error)     { return h.ingestImage(r) }
func (r RetrieveUserData) dispatch(h handler) (json.RawMessage, error) {
	return h.retrieveUserData(r)
}
func (r CheckUserData) dispatch(h handler) (json.RawMessage, error) { return h.checkUserData(r) }
func (r CaptionImage) dispatch(h handler) (json.RawMessage, error)  { return h.captionImage(r) }
func (r HealthCheck) dispatch(h handler) (json.RawMessage, error)   { return h.healthCheck(r) }
func (r TrackEvent) dispatch(h handler) (json.RawMessage, error)    { return h.trackEvent(r) }

// Text renders the event data as KeyValueText.
func (r TrackEvent) Text() string {
	return KeyValueText(r.Data)
}

// KeyValueText renders data as sorted "key: value" lines, dropping null and
// empty values. Lists are comma-joined.
func KeyValueText(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		v := data[k]
		if v == nil {
			continue
		}
		s := formatValue(v)
		if s == "" {
			continue
		}
		lines = append(lines, k+": "+s)
	}
	return strings.Join(lines, "\n")
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if e != nil {
				parts = append(parts, formatValue(e))
			}
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

type envelope struct {
	Action       Action          `json:"action"`
	Data         json.RawMessage `json:"data"`
	Type         string          `json:"type"`
	IncludeImage bool            `json:"include_image"`
}

var validate = validator.New()

// Decode parses a relay body, either {action, data} or {type, data, include_image}.
func Decode(body []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("rag: invalid body: %w", err)
	}

	if env.Type != "" && hasData(env.Data) {
		ev := TrackEvent{Type: env.Type, IncludeImage: env.IncludeImage}
		if err := json.Unmarshal(env.Data, &ev.Data); err != nil {
			return nil, fmt.Errorf("rag: invalid data: %w", err)
		}
		return ev, nil
	}

	var (
		req Request
		err error
	)
	switch env.Action {
	case "":
		return nil, ErrMissingAction
	case ActionIngestHealthProfile:
		req, err = decodeData[IngestHealthProfile](env.Data)
	case ActionIngestTrackData:
		req, err = decodeData[IngestTrackData](env.Data)
	case ActionIngestImage:
		req, err = decodeData[IngestImage](env.Data)
	case ActionRetrieveUserData:
		req, err = decodeData[RetrieveUserData](env.Data)
	case ActionCheckUserData:
		return CheckUserData{}, nil
	case ActionCaptionImage:
		req, err = decodeData[CaptionImage](env.Data)
	case ActionHealthCheck:
		return HealthCheck{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
	if err != nil {
		return nil, fmt.Errorf("rag: invalid data for %s: %w", env.Action, err)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("rag: invalid data for %s: %w", env.Action, err)
	}
	return req, nil
}

func decodeData[T Request](data json.RawMessage) (Request, error) {
	var v T
	if hasData(data) {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func hasData(data json.RawMessage) bool {
	s := strings.TrimSpace(string(data))
	return s != "" && s != "null"
}
