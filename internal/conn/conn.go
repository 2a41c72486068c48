package conn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tabulo/tabulo/internal/auth"
	"github.com/tabulo/tabulo/internal/engine"
	"github.com/tabulo/tabulo/internal/store"
	"github.com/tabulo/tabulo/pkg"
)

type WsRequest struct {
	Action RequestAction `json:"action"`
	ReqId  int           `json:"__tabulo_client_req_id__"` // used in tabulo clients
}

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ConnCtx is one client's connection state. Each connection owns an engine
// so date-parse caches are not shared across clients.
type ConnCtx struct {
	conn *websocket.Conn

	User   *auth.User
	Engine *engine.Engine
}

func NewConnCtx(c *websocket.Conn, user *auth.User) *ConnCtx {
	return &ConnCtx{conn: c, User: user, Engine: engine.New()}
}

func (ctx *ConnCtx) WriteResponse(r Response) error {
	return ctx.conn.WriteJSON(r)
}

// HasClearance defers to the user's role; a workbench with no users runs in
// open single-user mode where every connection has full access.
func (ctx *ConnCtx) HasClearance(r auth.UserRole) bool {
	if ctx.User == nil {
		return true
	}
	return ctx.User.HasClearance(r)
}

// ConnValidate checks credentials against the user table. Callers hold the
// workbench read lock; connections authenticate through Server.AuthorizeConn.
func ConnValidate(w *store.Workbench, username, password string) *auth.User {
	if username == "" {
		return nil
	}
	for _, u := range w.Users {
		if u.Name == username && u.ValidateUser(password) {
			return u
		}
	}
	return nil
}

func HttpError(res http.ResponseWriter, status int, err string) {
	res.WriteHeader(status)
	json.NewEncoder(res).Encode(NewErrorResponse(status, err))
}

type Server struct {
	Workbench *store.Workbench

	write_ticker *time.Ticker
}

func NewServer(w *store.Workbench) *Server {
	s := &Server{Workbench: w}
	if !w.WriteSettings.InMem {
		s.write_ticker = time.NewTicker(w.WriteSettings.WriteInterval)
	}
	return s
}

// connAuth pulls credentials from the query string ("auth" as user:pass, or
// "username"/"password"), falling back to the Authorization header.
func connAuth(r *http.Request) (string, string) {
	url_query := r.URL.Query()
	if url_query.Has("auth") {
		username, password, _ := strings.Cut(url_query.Get("auth"), ":")
		return username, password
	}
	if url_query.Has("username") || url_query.Has("password") {
		return url_query.Get("username"), url_query.Get("password")
	}
	username, password, _ := strings.Cut(r.Header.Get("Authorization"), ":")
	return username, password
}

// AuthorizeConn resolves the connecting user under the workbench read lock,
// so handshakes never race createUser/deleteUser mutating the user table.
// A workbench with no users accepts every connection with a nil user.
func (s *Server) AuthorizeConn(r *http.Request) (*auth.User, bool) {
	w := s.Workbench

	var user *auth.User
	authorized := true
	pkg.RLockWrap(w, func() {
		if len(w.Users) == 0 {
			return
		}
		username, password := connAuth(r)
		user = ConnValidate(w, username, password)
		authorized = user != nil
	})
	return user, authorized
}

func (s *Server) HandleConnection(res http.ResponseWriter, r *http.Request) {
	w := s.Workbench

	user, authorized := s.AuthorizeConn(r)
	if !authorized {
		HttpError(res, http.StatusUnauthorized, "connection unauthorized")
		return
	}

	conn, err := Upgrader.Upgrade(res, r, nil)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}
	pkg.InfoLog("New connection established")
	defer conn.Close()

	ctx := NewConnCtx(conn, user)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("unexpected close", err)
			} else {
				pkg.DebugLog("connection closed", err)
			}
			return
		}

		if s.write_ticker != nil {
			// reset write timer when a request is received
			s.write_ticker.Reset(w.WriteSettings.WriteInterval)
		}

		var req WsRequest
		if err := json.Unmarshal(message, &req); err != nil {
			pkg.ErrorLog("parsing request", err)
			continue
		}

		response := ActionHandler(w, req.Action, ctx, message)
		response.ReqId = req.ReqId

		if err := ctx.WriteResponse(response); err != nil {
			pkg.ErrorLog("writing response", err)
			return
		}

		if !req.Action.IsReadOnly() {
			pkg.LockWrap(w, func() {
				w.Touch()
			})
		}
	}
}

func (s *Server) Listen(port int) {
	exit := make(chan os.Signal, 2)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		ReadTimeout:  0,
		WriteTimeout: 0,
	}

	http.HandleFunc("/health", func(res http.ResponseWriter, r *http.Request) {
		res.WriteHeader(http.StatusOK)
		res.Write([]byte("ok"))
	})

	http.HandleFunc("/", s.HandleConnection)

	go func() {
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			pkg.FatalLog(err)
		}
	}()

	go func() {
		if s.write_ticker == nil {
			return
		}

		last_write := s.Workbench.LastWrite()

		for {
			<-s.write_ticker.C
			change := s.Workbench.LastWrite()
			if change.After(last_write) {
				s.Workbench.WriteToFile()
				last_write = change
			}
		}
	}()

	pkg.InfoLog("Tabulo listening on port", port)
	<-exit
	pkg.DebugLog("Shutting down...")
	server.Shutdown(context.Background())
	s.Workbench.WriteToFile()
}
