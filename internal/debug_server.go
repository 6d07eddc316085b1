package internal

import (
	"chat-relay/domain"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

const defaultPrefix = "room:"

type InspectRow struct {
	Key       string
	Kind      string
	Timestamp string
	EntityID  string
	Channel   string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Limit  int
	Items  []InspectRow
	Stats  map[string]any
}

// DebugServer renders the badger keyspace and live runtime stats as an HTML page.
type DebugServer struct {
	log    *slog.Logger
	db     *badger.DB
	mapper RowMapper
	stats  StatsProvider
	tmpl   *template.Template
}

func NewDebugServer(log *slog.Logger, db *badger.DB, mapper RowMapper, stats StatsProvider) *DebugServer {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return &DebugServer{
		log:    log,
		db:     db,
		mapper: mapper,
		stats:  stats,
		tmpl:   template.Must(template.ParseFS(templatesFS, "inspect.html")),
	}
}

func (s *DebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /inspect", s.inspect)
	return mux
}

func (s *DebugServer) inspect(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = defaultPrefix
	}
	limit := 200
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	data := PageData{
		Prefix: prefix,
		Limit:  limit,
		Stats:  make(map[string]any),
	}
	if s.stats != nil {
		data.Stats = s.stats()
	}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)) && len(data.Items) < limit; it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error {
				data.Items = append(data.Items, s.mapper(key, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("Inspect scan failed", "prefix", prefix, "error", err)
		http.Error(w, "scan failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.log.Warn("Inspect render failed", "error", err)
	}
}

// Serve listens on the debug port until ctx is cancelled.
func (s *DebugServer) Serve(ctx context.Context, address string) error {
	server := &http.Server{Addr: address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	s.log.Info("Starting debug server", "address", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// DefaultMapper understands the relay keyspace:
// user:id:<id>, room:<id>, member:<user>:<room>, msg:<id> and conv:<channel>|<unixnano>:<id>.
func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Kind:      "raw",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Channel:   "-",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	kind, rest, _ := strings.Cut(key, ":")
	row.Kind = kind
	switch kind {
	case "conv":
		channel, suffix, _ := strings.Cut(rest, "|")
		row.Channel = channel
		ts, id, _ := strings.Cut(suffix, ":")
		if tsNano, err := strconv.ParseInt(ts, 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
		row.EntityID = short(id)
	case "member":
		user, room, _ := strings.Cut(rest, ":")
		row.EntityID = short(user)
		row.Channel = room
	case "user":
		_, id, _ := strings.Cut(rest, ":")
		row.EntityID = short(id)
	default:
		row.EntityID = short(rest)
	}
	return row
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// MessageMapper decodes stored messages so the page shows who wrote what.
func MessageMapper(key string, val []byte) InspectRow {
	row := DefaultMapper(key, val)
	if !strings.HasPrefix(key, "msg:") {
		return row
	}
	var msg domain.Message
	if err := json.Unmarshal(val, &msg); err != nil {
		return row
	}
	row.Kind = string(msg.Delivery)
	row.Channel = msg.ConversationKey().String()
	row.Timestamp = msg.CreatedAt.UTC().Format("15:04:05")
	content := []rune(msg.Content)
	if len(content) > 60 {
		content = append(content[:60], '…')
	}
	row.Detail = fmt.Sprintf("%s: %s", msg.SenderID, string(content))
	return row
}
