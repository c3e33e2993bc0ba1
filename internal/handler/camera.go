package handler

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"framecheck/internal/config"
	"framecheck/internal/logger"
	"framecheck/internal/model"
	"framecheck/internal/service/session"

	"github.com/gorilla/websocket"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// FrameSink receives complete frames; session.Controller implements it.
type FrameSink interface {
	HandleFrame(frame model.Frame) error
}

// frameAssembler rebuilds JPEG frames split over several UDP packets, one buffer per camera.
type frameAssembler struct {
	buffers map[string]*bytes.Buffer
}

func newFrameAssembler() *frameAssembler {
	return &frameAssembler{buffers: make(map[string]*bytes.Buffer)}
}

// Push adds a packet and returns a copy of the frame once its end marker arrives.
func (a *frameAssembler) Push(camera string, data []byte) ([]byte, bool) {
	buf, ok := a.buffers[camera]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[camera] = buf
	}

	if bytes.HasPrefix(data, jpegHeader) {
		buf.Reset()
	}
	buf.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil, false
	}
	if !bytes.HasPrefix(buf.Bytes(), jpegHeader) {
		// Tail of a frame whose start was lost.
		buf.Reset()
		return nil, false
	}
	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())
	buf.Reset()
	return frame, true
}

func jpegFrame(data []byte, camera string) model.Frame {
	return model.Frame{
		Data:      data,
		Layout:    model.LayoutJPEG,
		Source:    camera,
		Timestamp: time.Now(),
	}
}

// deliver hands a frame to the sink. Frames arriving while no session runs are ignored,
// and a full queue is already logged by the controller.
func deliver(sink FrameSink, frame model.Frame, logger *logger.Logger) {
	err := sink.HandleFrame(frame)
	if err == nil || errors.Is(err, session.ErrNotAnalyzing) || errors.Is(err, session.ErrQueueFull) ||
		errors.Is(err, session.ErrClosed) {
		return
	}
	logger.Error("Failed to handle frame from %s: %v", frame.Source, err)
}

// UDPCameraHandler listens for UDP packets from cameras, reconstructs JPEG frames,
// and forwards complete frames for analysis until ctx is cancelled.
func UDPCameraHandler(ctx context.Context, sink FrameSink, logger *logger.Logger, config *config.Config) {
	port := strconv.Itoa(config.CamerasPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		logger.Error("Failed to resolve UDP address: %v", err)
		return
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		logger.Error("Failed to listen on UDP port %s: %v", port, err)
		return
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("UDP Camera handler started on port %s", port)
	buffer := make([]byte, 65535)
	assembler := newFrameAssembler()

	for {
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		ip := strings.Split(remoteAddr.String(), ":")[0]
		cameraName, exists := config.CameraNames[ip]
		if !exists {
			cameraName = "unknown_" + ip
		}

		if frame, ok := assembler.Push(cameraName, buffer[:n]); ok {
			deliver(sink, jpegFrame(frame, cameraName), logger)
		}
	}
}

// CameraWebsocketHandler accepts one JPEG frame per binary message from a camera
// identified by the "id" query parameter.
func CameraWebsocketHandler(sink FrameSink, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera := r.URL.Query().Get("id")
		if camera == "" {
			camera = "websocket_" + r.RemoteAddr
		}

		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		logger.Info("Camera connected: %s", camera)

		for {
			messageType, msg, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Camera %s disconnected", camera)
				} else {
					logger.Warning("Camera %s disconnected with error: %v", camera, err)
				}
				return
			}
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			if messageType != websocket.BinaryMessage {
				continue
			}
			deliver(sink, jpegFrame(msg, camera), logger)
		}
	}
}
