// Package hub broadcasts template activity (comments, likes, presence)
// to websocket clients grouped per template.
package hub

import (
	"log/slog"
	"sync"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type client struct {
	conn   *websocket.Conn
	userID uuid.UUID
	name   string

	mu sync.Mutex // serializes writes to conn
}

func (cl *client) send(msg serverMessage) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if err := cl.conn.WriteMessage(websocket.TextMessage, msg.encode()); err != nil {
		slog.Debug("hub write failed", "user_id", cl.userID, "error", err)
	}
}

type Hub struct {
	templates *services.TemplateService
	comments  *services.CommentService
	likes     *services.LikeService

	mu     sync.RWMutex
	groups map[uuid.UUID]map[*client]struct{}
}

func New(templates *services.TemplateService, comments *services.CommentService, likes *services.LikeService) *Hub {
	return &Hub{
		templates: templates,
		comments:  comments,
		likes:     likes,
		groups:    make(map[uuid.UUID]map[*client]struct{}),
	}
}

// Handler serves one websocket connection until it closes. Identity comes
// from locals set by the auth middleware before the upgrade.
func (h *Hub) Handler(conn *websocket.Conn) {
	userID, _ := conn.Locals("hub_user_id").(uuid.UUID)
	userName, _ := conn.Locals("hub_user_name").(string)
	if userID == uuid.Nil {
		conn.Close()
		return
	}

	cl := &client{conn: conn, userID: userID, name: userName}
	defer h.disconnect(cl)

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.dispatch(cl, msg)
	}
}

func (h *Hub) dispatch(cl *client, msg clientMessage) {
	switch msg.Event {
	case EventJoinTemplateGroup:
		h.join(cl, msg.TemplateID)
	case EventLeaveTemplateGroup:
		h.leave(cl, msg.TemplateID, true)
	case EventAddComment:
		h.addComment(cl, msg)
	case EventToggleLike:
		h.toggleLike(cl, msg.TemplateID)
	case EventGetTemplateActivity:
		h.sendActivity(cl, msg.TemplateID)
	default:
		cl.send(serverMessage{Event: EventError, Message: "unknown event"})
	}
}

// join authorizes once against the template's access rules. Later events
// in the group ride on this check.
func (h *Hub) join(cl *client, templateID uuid.UUID) {
	if _, err := h.templates.Get(templateID, cl.userID, false); err != nil {
		cl.send(serverMessage{Event: EventError, TemplateID: templateID, Message: err.Error()})
		return
	}

	h.mu.Lock()
	group, ok := h.groups[templateID]
	if !ok {
		group = make(map[*client]struct{})
		h.groups[templateID] = group
	}
	group[cl] = struct{}{}
	h.mu.Unlock()

	h.broadcast(templateID, serverMessage{
		Event:      EventUserJoined,
		TemplateID: templateID,
		Payload:    map[string]interface{}{"user_id": cl.userID, "user_name": cl.name},
	}, cl)
	h.sendActivity(cl, templateID)
}

func (h *Hub) leave(cl *client, templateID uuid.UUID, notify bool) {
	h.mu.Lock()
	group, ok := h.groups[templateID]
	if ok {
		delete(group, cl)
		if len(group) == 0 {
			delete(h.groups, templateID)
		}
	}
	h.mu.Unlock()

	if ok && notify {
		h.broadcast(templateID, serverMessage{
			Event:      EventUserLeft,
			TemplateID: templateID,
			Payload:    map[string]interface{}{"user_id": cl.userID, "user_name": cl.name},
		}, cl)
	}
}

func (h *Hub) disconnect(cl *client) {
	h.mu.Lock()
	var joined []uuid.UUID
	for templateID, group := range h.groups {
		if _, ok := group[cl]; ok {
			joined = append(joined, templateID)
		}
	}
	h.mu.Unlock()

	for _, templateID := range joined {
		h.leave(cl, templateID, true)
	}
	cl.conn.Close()
}

func (h *Hub) addComment(cl *client, msg clientMessage) {
	comment, err := h.comments.Add(cl.userID, msg.TemplateID, msg.Text)
	if err != nil {
		cl.send(serverMessage{Event: EventError, TemplateID: msg.TemplateID, Message: err.Error()})
		return
	}
	h.broadcast(msg.TemplateID, serverMessage{
		Event:      EventNewComment,
		TemplateID: msg.TemplateID,
		Payload:    comment,
	}, nil)
}

func (h *Hub) toggleLike(cl *client, templateID uuid.UUID) {
	state, err := h.likes.Toggle(cl.userID, templateID)
	if err != nil {
		cl.send(serverMessage{Event: EventError, TemplateID: templateID, Message: err.Error()})
		return
	}
	h.broadcast(templateID, serverMessage{
		Event:      EventLikeToggled,
		TemplateID: templateID,
		Payload:    state,
	}, nil)
}

func (h *Hub) sendActivity(cl *client, templateID uuid.UUID) {
	comments, err := h.comments.ListByTemplate(templateID, 50)
	if err != nil {
		cl.send(serverMessage{Event: EventError, TemplateID: templateID, Message: err.Error()})
		return
	}
	likeCount, err := h.likes.Count(templateID)
	if err != nil {
		cl.send(serverMessage{Event: EventError, TemplateID: templateID, Message: err.Error()})
		return
	}
	cl.send(serverMessage{
		Event:      EventTemplateActivity,
		TemplateID: templateID,
		Payload: dto.TemplateActivityResponse{
			TemplateID: templateID,
			Comments:   comments,
			LikeCount:  likeCount,
		},
	})
}

// broadcast sends to every member of the group except skip.
func (h *Hub) broadcast(templateID uuid.UUID, msg serverMessage, skip *client) {
	h.mu.RLock()
	members := make([]*client, 0, len(h.groups[templateID]))
	for cl := range h.groups[templateID] {
		if cl != skip {
			members = append(members, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range members {
		cl.send(msg)
	}
}
