package hub

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeDeadline = 5 * time.Second

// outMessage is one frame queued for delivery. Control frames (pings, close)
// travel through the same channel as data frames, so per-connection order
// matches enqueue order.
type outMessage struct {
	messageType int
	payload     []byte
}

// clientWriter serializes all writes to one connection through a single
// goroutine. The hub enqueues non-blockingly; a full buffer or a closed
// writer makes enqueue return false and the hub decides what to do.
type clientWriter struct {
	connection  *websocket.Conn
	sendChannel chan outMessage
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	closed      atomic.Bool
}

func newClientWriter(connection *websocket.Conn, bufferSize int) *clientWriter {
	cw := &clientWriter{
		connection:  connection,
		sendChannel: make(chan outMessage, bufferSize),
		doneChannel: make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	defer cw.wg.Done()

	for {
		select {
		case msg := <-cw.sendChannel:
			_ = cw.connection.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := cw.connection.WriteMessage(msg.messageType, msg.payload); err != nil {
				// Transport failure is fatal for this connection only.
				// Closing it unblocks the read pump, which unregisters.
				slog.Debug("Write failed, closing connection", "error", err)
				cw.closed.Store(true)
				_ = cw.connection.Close()
				return
			}
		case <-cw.doneChannel:
			return
		}
	}
}

// enqueue queues a frame without blocking. Returns false if the writer is
// stopped, mid-close, or its buffer is full.
func (cw *clientWriter) enqueue(messageType int, payload []byte) bool {
	if cw.closed.Load() {
		return false
	}
	select {
	case cw.sendChannel <- outMessage{messageType: messageType, payload: payload}:
		return true
	default:
		return false
	}
}

func (cw *clientWriter) isClosed() bool {
	return cw.closed.Load()
}

// stop terminates the writer and closes the transport. Idempotent.
func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		cw.closed.Store(true)
		close(cw.doneChannel)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

// stopGraceful sends a websocket close frame with reason before closing.
func (cw *clientWriter) stopGraceful(reason string) {
	cw.stopOnce.Do(func() {
		cw.closed.Store(true)
		close(cw.doneChannel)

		// The run goroutine must exit before we write the close frame, or
		// two goroutines would write to the connection concurrently.
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = cw.connection.SetWriteDeadline(time.Now().Add(writeDeadline))
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}
