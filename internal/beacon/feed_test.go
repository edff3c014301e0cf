package beacon

import (
	"testing"
	"time"
)

type recordingSink struct {
	ids   []ID
	times []time.Time
}

func (r *recordingSink) RecordSighting(id ID, at time.Time) {
	r.ids = append(r.ids, id)
	r.times = append(r.times, at)
}

func TestParseAdvert(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    ID
		wantErr bool
	}{
		{
			name:    "valid",
			payload: `{"uuid":"FDA50693-A4E2-4FB1-AFCF-C6EB07647825","major":"10004","minor":"54480"}`,
			want:    ID{UUID: "FDA50693-A4E2-4FB1-AFCF-C6EB07647825", Major: "10004", Minor: "54480"},
		},
		{name: "not_json", payload: `hcidump garbage`, wantErr: true},
		{name: "missing_minor", payload: `{"uuid":"x","major":"1"}`, wantErr: true},
		{name: "empty", payload: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAdvert([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAdvert: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFeedForwardsSightings(t *testing.T) {
	conn := NewFakeConn()
	sink := &recordingSink{}
	feed := NewFeed(conn, "ibeacon/adverts", sink)

	stamp := time.Date(2026, time.August, 30, 20, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return stamp }

	if err := feed.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if conn.Topic != "ibeacon/adverts" {
		t.Errorf("subscribed to %q", conn.Topic)
	}

	conn.Publish([]byte(`{"uuid":"u","major":"1","minor":"2"}`))
	conn.Publish([]byte(`not an advert`)) // dropped silently
	conn.Publish([]byte(`{"uuid":"u","major":"1","minor":"2"}`))

	if len(sink.ids) != 2 {
		t.Fatalf("sink received %d sightings, want 2", len(sink.ids))
	}
	if sink.ids[0] != (ID{UUID: "u", Major: "1", Minor: "2"}) {
		t.Errorf("unexpected id %+v", sink.ids[0])
	}
	if !sink.times[0].Equal(stamp) {
		t.Errorf("sighting stamped %v, want %v", sink.times[0], stamp)
	}
}

func TestFeedStopClosesConn(t *testing.T) {
	conn := NewFakeConn()
	feed := NewFeed(conn, "t", &recordingSink{})
	if err := feed.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !conn.Closed {
		t.Error("Stop should close the connection")
	}
}
