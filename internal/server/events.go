package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/hyperjump/docpack/internal/models"
)

// maxEventBytes bounds the size of an event request body.
const maxEventBytes = 1 << 20

// Event delivery modes.
const (
	modeBinary     = "binary"
	modeStructured = "structured"
	modePubSub     = "pubsub"
	modePlain      = "plain"
)

// ErrUnsupportedEvent is returned when a request carries no recognisable object event.
var ErrUnsupportedEvent = errors.New("unsupported event payload")

// eventMeta holds the envelope attributes that are only logged.
type eventMeta struct {
	Mode string
	ID   string
	Type string
}

// storageObject is the storage object resource carried as event data.
type storageObject struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

type structuredEvent struct {
	SpecVersion string          `json:"specversion"`
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Data        json.RawMessage `json:"data"`
	DataBase64  string          `json:"data_base64"`
}

type pushEnvelope struct {
	Message *struct {
		Attributes map[string]string `json:"attributes"`
		Data       string            `json:"data"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// decodeEvent reads an object event from r. It accepts a CloudEvent in binary or
// structured mode, a Pub/Sub push envelope, or a bare storage object JSON body.
func decodeEvent(w http.ResponseWriter, r *http.Request) (models.ObjectEvent, eventMeta, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		return models.ObjectEvent{}, eventMeta{}, fmt.Errorf("read body: %w", err)
	}

	if r.Header.Get("Ce-Specversion") != "" {
		meta := eventMeta{Mode: modeBinary, ID: r.Header.Get("Ce-Id"), Type: r.Header.Get("Ce-Type")}
		ev, err := objectFromJSON(body)
		return ev, meta, err
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/cloudevents+json" {
		var se structuredEvent
		if err := json.Unmarshal(body, &se); err != nil {
			return models.ObjectEvent{}, eventMeta{}, fmt.Errorf("%w: %v", ErrUnsupportedEvent, err)
		}
		meta := eventMeta{Mode: modeStructured, ID: se.ID, Type: se.Type}
		data := []byte(se.Data)
		if len(data) == 0 && se.DataBase64 != "" {
			if data, err = base64.StdEncoding.DecodeString(se.DataBase64); err != nil {
				return models.ObjectEvent{}, meta, fmt.Errorf("%w: data_base64: %v", ErrUnsupportedEvent, err)
			}
		}
		ev, err := objectFromJSON(data)
		return ev, meta, err
	}

	var push pushEnvelope
	if err := json.Unmarshal(body, &push); err == nil && push.Message != nil {
		meta := eventMeta{Mode: modePubSub, ID: push.Message.MessageID}
		ev := models.ObjectEvent{
			Bucket: push.Message.Attributes["bucketId"],
			Name:   push.Message.Attributes["objectId"],
		}
		if (ev.Bucket == "" || ev.Name == "") && push.Message.Data != "" {
			data, derr := base64.StdEncoding.DecodeString(push.Message.Data)
			if derr != nil {
				return models.ObjectEvent{}, meta, fmt.Errorf("%w: message data: %v", ErrUnsupportedEvent, derr)
			}
			return withValidation(objectFromJSONLenient(data, ev), meta)
		}
		return withValidation(ev, meta)
	}

	ev, err := objectFromJSON(body)
	return ev, eventMeta{Mode: modePlain}, err
}

func objectFromJSON(data []byte) (models.ObjectEvent, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.ObjectEvent{}, fmt.Errorf("%w: empty data", ErrUnsupportedEvent)
	}
	var obj storageObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return models.ObjectEvent{}, fmt.Errorf("%w: %v", ErrUnsupportedEvent, err)
	}
	ev := models.ObjectEvent{Bucket: obj.Bucket, Name: obj.Name, ContentType: obj.ContentType}
	return ev, ev.Validate()
}

// objectFromJSONLenient fills the fields of base that are empty from data.
func objectFromJSONLenient(data []byte, base models.ObjectEvent) models.ObjectEvent {
	var obj storageObject
	if json.Unmarshal(data, &obj) != nil {
		return base
	}
	if base.Bucket == "" {
		base.Bucket = obj.Bucket
	}
	if base.Name == "" {
		base.Name = obj.Name
	}
	if base.ContentType == "" {
		base.ContentType = obj.ContentType
	}
	return base
}

func withValidation(ev models.ObjectEvent, meta eventMeta) (models.ObjectEvent, eventMeta, error) {
	return ev, meta, ev.Validate()
}
