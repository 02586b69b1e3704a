package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/cambio/service/internal/game"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 5 * time.Second

// handleWS upgrades a seated player's connection. Commands arrive as JSON
// game.Command values; every command gets a command_result or error reply,
// and the table's events are pushed as they happen.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	player, err := uuid.Parse(r.URL.Query().Get("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	seated := false
	for _, id := range sess.Players() {
		if id == player {
			seated = true
		}
	}
	if !seated {
		writeError(w, http.StatusForbidden, game.ErrNotSeated.Error())
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	log := s.log.WithFields(logrus.Fields{"game": sess.ID, "player": player})
	c := &client{session: sess.ID, player: player, send: make(chan []byte, sendBuffer)}
	s.hub.register(c)
	log.Info("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	writerDone := make(chan struct{})
	go s.writePump(ctx, conn, c, writerDone)

	if _, err := sess.HandleCommand(player, game.Command{Type: game.CmdSyncState}); err != nil {
		log.WithError(err).Warn("initial sync failed")
	}

	s.readPump(ctx, conn, c, sess, log)

	s.hub.unregister(c)
	cancel()
	<-writerDone
	conn.Close(websocket.StatusNormalClosure, "bye")
	log.Info("client disconnected")
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, c *client, sess *game.Session, log logrus.FieldLogger) {
	for {
		var cmd game.Command
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				log.WithError(err).Debug("read failed")
			}
			return
		}
		ok, err := sess.HandleCommand(c.player, cmd)
		if err != nil {
			s.hub.reply(c, game.GameEvent{
				Type:    game.EventError,
				Payload: map[string]interface{}{"command": cmd.Type, "error": err.Error()},
			})
			continue
		}
		s.hub.reply(c, game.GameEvent{
			Type:    game.EventCommandResult,
			Payload: map[string]interface{}{"command": cmd.Type, "ok": ok},
		})
	}
}

// writePump owns every write to the connection. A failed write closes the
// connection, which ends the read loop.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, c *client, done chan<- struct{}) {
	defer close(done)
	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				conn.CloseNow()
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				conn.CloseNow()
				return
			}
		}
	}
}
