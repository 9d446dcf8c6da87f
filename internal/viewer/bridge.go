package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/client"
	"github.com/sehyun/yt-translator-go/internal/domain"
	"github.com/sehyun/yt-translator-go/internal/store"
)

// Bridge accepts websocket connections from the viewer page and routes
// its actions to the tab manager, registry, transcript panel, and
// orchestrator. One connection corresponds to one page; the connection
// closing means the page unloaded.
type Bridge struct {
	backend        *client.Client
	tabManager     *TabManager
	prefs          store.Store
	requestTimeout time.Duration
	logger         *zap.Logger
	upgrader       websocket.Upgrader
}

func NewBridge(backend *client.Client, tabManager *TabManager, prefs store.Store, requestTimeout time.Duration, logger *zap.Logger) *Bridge {
	return &Bridge{
		backend:        backend,
		tabManager:     tabManager,
		prefs:          prefs,
		requestTimeout: requestTimeout,
		logger:         logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// newOrchestrator builds an orchestrator bound to the configured
// request timeout.
func (b *Bridge) newOrchestrator(sink Sink) *Orchestrator {
	o := NewOrchestrator(b.backend, b.prefs, sink, b.logger)
	if b.requestTimeout > 0 {
		o.WithTimeout(b.requestTimeout)
	}
	return o
}

// resolveStreaming picks the translation mode. An explicit flag from
// the page wins and is written back to the use_streaming preference;
// otherwise the stored preference decides.
func (b *Bridge) resolveStreaming(ctx context.Context, override *bool) bool {
	if override != nil {
		if err := b.prefs.Set(ctx, store.KeyUseStreaming, strconv.FormatBool(*override)); err != nil {
			b.logger.Warn("Failed to persist streaming preference", zap.Error(err))
		}
		return *override
	}

	raw, err := b.prefs.Get(ctx, store.KeyUseStreaming)
	if err != nil || raw == "" {
		return false
	}
	enabled, err := strconv.ParseBool(raw)
	return err == nil && enabled
}

func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWS)
	return mux
}

func (b *Bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("Websocket upgrade failed", zap.Error(err))
		return
	}

	session := newConnSession(conn, b, b.logger)
	defer session.close()

	b.logger.Info("Viewer page connected", zap.String("remote", r.RemoteAddr))
	session.readLoop()
	b.logger.Info("Viewer page disconnected", zap.String("remote", r.RemoteAddr))
}

// connSession is the per-connection state: a write-locked socket, the
// page's current video, and an unload channel closed when the socket
// drops.
type connSession struct {
	conn   *websocket.Conn
	bridge *Bridge
	logger *zap.Logger

	writeMu sync.Mutex
	video   domain.VideoRef
	videoMu sync.RWMutex

	unload     chan struct{}
	unloadOnce sync.Once
}

func newConnSession(conn *websocket.Conn, bridge *Bridge, logger *zap.Logger) *connSession {
	return &connSession{
		conn:   conn,
		bridge: bridge,
		logger: logger,
		unload: make(chan struct{}),
	}
}

func (s *connSession) close() {
	s.unloadOnce.Do(func() { close(s.unload) })
	s.conn.Close()
}

func (s *connSession) readLoop() {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			// Read failure means the page unloaded; cancel running work.
			s.unloadOnce.Do(func() { close(s.unload) })
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("Malformed bridge message", zap.Error(err))
			continue
		}
		s.dispatch(msg)
	}
}

func (s *connSession) dispatch(msg Message) {
	ctx := context.Background()

	switch msg.Action {
	case ActionShowVideo:
		var data ShowVideoData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.logger.Warn("Malformed showVideoId data", zap.Error(err))
			return
		}
		s.videoMu.Lock()
		s.video = data.VideoRef
		s.videoMu.Unlock()
		if err := s.bridge.tabManager.ShowVideo(ctx, data.VideoRef); err != nil {
			s.logger.Error("Failed to show translator tab", zap.Error(err))
		}
		s.send(Event{Type: EventAck})

	case ActionLoadModels:
		var data LoadModelsData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				s.logger.Warn("Malformed loadModels data", zap.Error(err))
				return
			}
		}
		registry := NewRegistry(s.bridge.backend, s.bridge.prefs, s.logger)
		go registry.Load(ctx, data.Provider, &wsModelSelect{session: s})

	case ActionFetchTranscript:
		var data FetchTranscriptData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.logger.Warn("Malformed fetchTranscript data", zap.Error(err))
			return
		}
		panel := NewTranscriptPanel(s.bridge.backend, s.bridge.prefs, s.logger)
		go panel.Load(ctx, domain.VideoRef{
			VideoID:    data.VideoID,
			VideoTitle: data.Title,
			FullURL:    data.FullURL,
		}, &wsTranscriptView{session: s})

	case ActionLoadLanguages:
		options := make([]LanguageOption, 0)
		for _, code := range domain.PopularLanguages() {
			options = append(options, LanguageOption{Code: code, Name: domain.LanguageName(code)})
		}
		s.send(Event{Type: EventLanguages, Languages: options})

	case ActionToggleTimestamp:
		s.videoMu.RLock()
		video := s.video
		s.videoMu.RUnlock()
		panel := NewTranscriptPanel(s.bridge.backend, s.bridge.prefs, s.logger)
		go panel.ToggleTimestamps(ctx, video, &wsTranscriptView{session: s})

	case ActionTranslate:
		var data TranslateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.logger.Warn("Malformed translate data", zap.Error(err))
			return
		}
		streaming := s.bridge.resolveStreaming(ctx, data.Stream)
		orchestrator := s.bridge.newOrchestrator(&wsSink{session: s})
		go orchestrator.Run(ctx, data.Text, data.Model, data.TargetLanguage, streaming, data.ShowNotification, s.unload)

	default:
		s.logger.Warn("Unknown bridge action", zap.String("action", msg.Action))
	}
}

func (s *connSession) send(event Event) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(event); err != nil {
		s.logger.Debug("Bridge write failed", zap.Error(err))
	}
}

// wsSink forwards orchestrator render calls to the page over the socket.
type wsSink struct {
	session *connSession
}

var _ Sink = (*wsSink)(nil)

func (w *wsSink) SetStatus(text string)   { w.session.send(Event{Type: EventStatus, Text: text}) }
func (w *wsSink) SetOutput(text string)   { w.session.send(Event{Type: EventOutput, Text: text}) }
func (w *wsSink) AppendOutput(text string) {
	w.session.send(Event{Type: EventAppendOutput, Text: text})
}
func (w *wsSink) ShowError(text string) { w.session.send(Event{Type: EventError, Text: text}) }
func (w *wsSink) SetControlsEnabled(enabled bool) {
	w.session.send(Event{Type: EventControls, Enabled: &enabled})
}
func (w *wsSink) SetProgressPhase(text string) {
	w.session.send(Event{Type: EventProgress, Text: text})
}

type wsModelSelect struct {
	session *connSession
}

var _ ModelSelect = (*wsModelSelect)(nil)

func (w *wsModelSelect) SetOptions(models []string, selected string) {
	w.session.send(Event{Type: EventModels, Models: models, Selected: selected})
}

func (w *wsModelSelect) SetPlaceholder(label string) {
	w.session.send(Event{Type: EventModels, Models: []string{}, Text: label})
}

type wsTranscriptView struct {
	session *connSession
}

var _ TranscriptView = (*wsTranscriptView)(nil)

func (w *wsTranscriptView) SetHeader(html string) {
	w.session.send(Event{Type: EventTranscript, HTML: html})
}

func (w *wsTranscriptView) SetBody(text string) {
	w.session.send(Event{Type: EventTranscript, Text: text})
}

func (w *wsTranscriptView) ShowError(text string) {
	w.session.send(Event{Type: EventError, Text: text})
}
