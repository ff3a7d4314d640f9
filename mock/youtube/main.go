package main

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

//go:embed data.json
var jsonData []byte

type item struct {
	ID             string          `json:"id"`
	Snippet        json.RawMessage `json:"snippet,omitempty"`
	ContentDetails json.RawMessage `json:"contentDetails,omitempty"`
	Statistics     json.RawMessage `json:"statistics,omitempty"`
}

type dataset struct {
	Videos   []item `json:"videos"`
	Channels []item `json:"channels"`
}

func main() {
	var data dataset
	if err := json.Unmarshal(jsonData, &data); err != nil {
		log.Fatalf("[Mock YouTube] Bad data.json: %v", err)
	}

	http.HandleFunc("/videos", listHandler("videos", data.Videos))
	http.HandleFunc("/channels", listHandler("channels", data.Channels))

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Mock YouTube] Health write error: %v", err)
		}
	})

	log.Println("Mock YouTube Data API running on :8081")
	server := &http.Server{
		Addr:         ":8081",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

// listHandler mimics a Data API list endpoint: items matching the
// comma-separated id parameter are returned, unknown ids are silently
// absent, exactly as the real API behaves.
func listHandler(name string, items []item) http.HandlerFunc {
	byID := make(map[string]item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (50-200ms)
		time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

		if r.URL.Query().Get("key") == "" {
			w.WriteHeader(http.StatusForbidden)
			log.Printf("[Mock YouTube] %s %s - 403 missing key", r.Method, r.URL.Path)

			return
		}

		matched := make([]item, 0)
		for _, id := range strings.Split(r.URL.Query().Get("id"), ",") {
			if it, ok := byID[strings.TrimSpace(id)]; ok {
				matched = append(matched, it)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]any{"items": matched}); err != nil {
			log.Printf("[Mock YouTube] Write error: %v", err)
		}

		log.Printf("[Mock YouTube] %s /%s - 200 OK (%d items)", r.Method, name, len(matched))
	}
}
