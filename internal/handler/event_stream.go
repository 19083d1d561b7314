package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/medmitra/internal/event"
	"github.com/hitoshi/medmitra/internal/model"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

// WebSocketフレームの種別
const (
	frameUserMessage = "user_message"
	frameResponse    = "medmitra_response"
	frameError       = "error"
)

// 1接続あたりの返答フレームの受付レート。
const (
	socketReplyInterval = 2 * time.Second
	socketReplyBurst    = 5
)

// EventSubscriber はイベントバスの購読インターフェース。
type EventSubscriber interface {
	Subscribe() (<-chan event.Event, func())
}

// eventPayload はWebSocketで送るイベントのJSON表現。
type eventPayload struct {
	Type         string                `json:"type"`
	OccurredAt   time.Time             `json:"occurred_at"`
	Message      string                `json:"message,omitempty"`
	Medication   *medicationResponse   `json:"medication,omitempty"`
	Record       *doseRecordResponse   `json:"record,omitempty"`
	Notification *notificationResponse `json:"notification,omitempty"`
}

func toEventPayload(ev event.Event) eventPayload {
	p := eventPayload{
		Type:       string(ev.Type),
		OccurredAt: ev.OccurredAt,
	}
	if ev.Medication != nil {
		m := toMedicationResponse(ev.Medication)
		p.Medication = &m
	}
	if ev.Record != nil {
		rec := toDoseRecordResponse(ev.Record)
		p.Record = &rec
	}
	if ev.Notification != nil {
		n := toNotificationResponse(ev.Notification)
		p.Notification = &n
	}
	return p
}

// clientFrame はクライアントから受け取るフレーム。
type clientFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// errorFrame は返答の処理に失敗した場合に送るフレーム。
type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toErrorFrame(apiErr *model.APIError) errorFrame {
	return errorFrame{Type: frameError, Code: apiErr.Code, Message: apiErr.Message}
}

// EventStreamHandler はイベントバスの内容をWebSocketでブラウザへ配信し、
// 同じ接続で受け取ったユーザーの返答に応答する。
type EventStreamHandler struct {
	bus           EventSubscriber
	conversation  ConversationServiceInterface
	allowedOrigin string
}

// NewEventStreamHandler はEventStreamHandlerを生成する。
// allowedOriginが空の場合はOriginを検査しない。conversationがnilの場合、受信フレームは無視する。
func NewEventStreamHandler(bus EventSubscriber, conversation ConversationServiceInterface, allowedOrigin string) *EventStreamHandler {
	return &EventStreamHandler{
		bus:           bus,
		conversation:  conversation,
		allowedOrigin: allowedOrigin,
	}
}

// ServeHTTP はWebSocket接続を確立してイベントを配信する。
// GET /ws/events
func (h *EventStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv := websocket.Server{
		Handshake: h.checkOrigin,
		Handler:   h.stream,
	}
	srv.ServeHTTP(w, r)
}

// checkOrigin はブラウザからの接続元を検査する。Originのないクライアントは許可する。
func (h *EventStreamHandler) checkOrigin(cfg *websocket.Config, r *http.Request) error {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "" || origin == h.allowedOrigin {
		return nil
	}
	return fmt.Errorf("origin not allowed: %s", origin)
}

// stream は送信を1つのループに集約する。受信側のgoroutineは応答フレームをrepliesへ渡す。
func (h *EventStreamHandler) stream(ws *websocket.Conn) {
	defer ws.Close()

	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ws.Request().Context())
	defer cancel()

	replies := make(chan any, socketReplyBurst)
	go func() {
		defer cancel()
		h.receive(ctx, ws, replies)
	}()

	slog.Info("event stream connected", slog.String("remote_addr", ws.Request().RemoteAddr))

	for {
		var frame any
		select {
		case <-ctx.Done():
			slog.Info("event stream disconnected", slog.String("remote_addr", ws.Request().RemoteAddr))
			return
		case reply := <-replies:
			frame = reply
		case ev, ok := <-events:
			if !ok {
				return
			}
			frame = h.toFrame(ctx, ev)
		}
		if err := websocket.JSON.Send(ws, frame); err != nil {
			slog.Warn("failed to send frame", slog.String("error", err.Error()))
			return
		}
	}
}

// receive はクライアントからのフレームを読み、user_messageに応答する。
// 読み込みエラー（切断を含む）で戻る。
func (h *EventStreamHandler) receive(ctx context.Context, ws *websocket.Conn, replies chan<- any) {
	limiter := rate.NewLimiter(rate.Every(socketReplyInterval), socketReplyBurst)
	for {
		var in clientFrame
		if err := websocket.JSON.Receive(ws, &in); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				continue
			}
			return
		}
		if in.Type != frameUserMessage || h.conversation == nil {
			continue
		}

		var out any
		if limiter.Allow() {
			out = h.respond(ctx, in.Text)
		} else {
			out = toErrorFrame(model.NewRateLimitError())
		}
		select {
		case replies <- out:
		case <-ctx.Done():
			return
		}
	}
}

func (h *EventStreamHandler) respond(ctx context.Context, text string) any {
	reply, err := h.conversation.Respond(ctx, text)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return toErrorFrame(apiErr)
		}
		slog.Error("failed to handle socket message", slog.String("error", err.Error()))
		return toErrorFrame(model.NewInternalError())
	}
	resp := toReplyResponse(reply)
	resp.Type = frameResponse
	return resp
}

// toFrame はイベントを送信用ペイロードに変換する。リマインダーには文面を付ける。
func (h *EventStreamHandler) toFrame(ctx context.Context, ev event.Event) eventPayload {
	p := toEventPayload(ev)
	if ev.Type == event.TypeReminderDue && ev.Medication != nil && h.conversation != nil {
		text, err := h.conversation.ReminderText(ctx, ev.Medication)
		if err != nil {
			slog.Warn("failed to build reminder text", slog.String("error", err.Error()))
		} else {
			p.Message = text
		}
	}
	return p
}
