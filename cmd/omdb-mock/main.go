package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
)

type movieEntry struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	IMDbRating string `json:"imdbRating"`
	Poster     string `json:"Poster"`
	Response   string `json:"Response"`
}

type missResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "mock-omdb.json", "path to mock data file")
		apiKey  = flag.String("apikey", "", "API key to require (empty accepts any)")
		logReqs = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	catalogue, err := loadCatalogue(*data)
	if err != nil {
		log.Fatalf("load mock data: %v", err)
	}

	handler := newHandler(catalogue, *apiKey)
	if *logReqs {
		handler = logRequests(handler)
	}

	addr := ":" + *port
	log.Printf("mock omdb listening on %s with %d titles", addr, len(catalogue))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// loadCatalogue reads a JSON object of title to entry and indexes it by
// lower-cased title.
func loadCatalogue(path string) (map[string]movieEntry, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var payload map[string]movieEntry
	if err := json.Unmarshal(file, &payload); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	catalogue := make(map[string]movieEntry, len(payload))
	for title, entry := range payload {
		if entry.Title == "" {
			entry.Title = title
		}
		entry.Response = "True"
		catalogue[strings.ToLower(strings.TrimSpace(title))] = entry
	}
	return catalogue, nil
}

// newHandler answers OMDb title lookups (?t=...&apikey=...) from catalogue.
func newHandler(catalogue map[string]movieEntry, apiKey string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")

		if apiKey != "" && query.Get("apikey") != apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(missResponse{Response: "False", Error: "Invalid API key!"})
			return
		}

		entry, ok := catalogue[strings.ToLower(strings.TrimSpace(query.Get("t")))]
		if !ok {
			_ = json.NewEncoder(w).Encode(missResponse{Response: "False", Error: "Movie not found!"})
			return
		}
		if err := json.NewEncoder(w).Encode(entry); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return mux
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s t=%q", r.Method, r.URL.Path, r.URL.Query().Get("t"))
		next.ServeHTTP(w, r)
	})
}
