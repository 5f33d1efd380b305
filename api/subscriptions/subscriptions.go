// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	apievents "github.com/pozk/ledger/api/events"
	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/system"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
	// Events read from the journal per round.
	readLimit = 256
)

type Subscriptions struct {
	sys      *system.System
	upgrader *websocket.Upgrader
	cache    *messageCache
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(sys *system.System, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		sys: sys,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		cache: newMessageCache(readLimit),
		done:  make(chan struct{}),
	}
}

func parseAddressQuery(req *http.Request, name string) (*pozk.Address, error) {
	s := req.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	addr, err := pozk.ParseAddress(s)
	if err != nil {
		return nil, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return &addr, nil
}

func (s *Subscriptions) parseEventCriteria(req *http.Request) (*apievents.EventCriteria, error) {
	var (
		c   apievents.EventCriteria
		err error
	)
	query := req.URL.Query()
	if name := query.Get("name"); name != "" {
		c.Name = &name
	}
	if role := query.Get("role"); role != "" {
		c.Role = &role
	}
	if id := query.Get("taskID"); id != "" {
		v, err := strconv.ParseUint(id, 0, 64)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "taskID"))
		}
		c.TaskID = &v
	}
	if c.Contract, err = parseAddressQuery(req, "contract"); err != nil {
		return nil, err
	}
	if c.Prover, err = parseAddressQuery(req, "prover"); err != nil {
		return nil, err
	}
	if c.Account, err = parseAddressQuery(req, "account"); err != nil {
		return nil, err
	}
	if c.Token, err = parseAddressQuery(req, "token"); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Subscriptions) parsePosition(req *http.Request) (logdb.Sequence, error) {
	str := req.URL.Query().Get("pos")
	if str == "" {
		return s.sys.Head(), nil
	}
	pos, err := strconv.ParseInt(str, 0, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, "pos"))
	}
	if pos < -1 {
		return 0, restutil.BadRequest(errors.New("pos: must not be less than -1"))
	}
	return logdb.Sequence(pos), nil
}

func (s *Subscriptions) handleSubject(w http.ResponseWriter, req *http.Request) error {
	s.wg.Add(1)
	defer s.wg.Done()

	pos, err := s.parsePosition(req)
	if err != nil {
		return err
	}
	crit, err := s.parseEventCriteria(req)
	if err != nil {
		return err
	}
	criteria, err := apievents.ConvertCriteriaSet([]*apievents.EventCriteria{crit})
	if err != nil {
		return restutil.BadRequest(err)
	}
	reader := newEventReader(s.sys, pos, criteria, readLimit, s.cache)

	conn, closed, err := s.setupConn(w, req)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	err = s.pipe(conn, reader, closed)
	s.closeConn(conn, err)
	return nil
}

func (s *Subscriptions) setupConn(w http.ResponseWriter, req *http.Request) (*websocket.Conn, chan struct{}, error) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, nil, err
	}

	closed := make(chan struct{})
	// start read loop to handle close event
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket read err", "err", err)
				close(closed)
				break
			}
		}
	}()
	return conn, closed, nil
}

func (s *Subscriptions) closeConn(conn *websocket.Conn, err error) {
	var closeMsg []byte
	if err != nil {
		closeMsg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	} else {
		closeMsg = websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	}

	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		logger.Debug("write close message", "err", err)
	}
	if err := conn.Close(); err != nil {
		logger.Debug("close websocket", "err", err)
	}
}

func (s *Subscriptions) pipe(conn *websocket.Conn, reader *eventReader, closed chan struct{}) error {
	ticker := s.sys.NewTicker()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		msgs, hasMore, err := reader.Read()
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		}
		if hasMore {
			select {
			case <-s.done:
				return nil
			case <-closed:
				return nil
			default:
				continue
			}
		}
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-ticker.C():
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

// Close terminates every open subscription and waits for them to finish.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubject))
}
