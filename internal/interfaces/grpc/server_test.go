package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

// ---------------------------------------------------------------------------
// Mock: Logger
// ---------------------------------------------------------------------------

type logEntry struct {
	level  string
	msg    string
	fields []logging.Field
}

type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func newMockLogger() *mockLogger {
	return &mockLogger{}
}

func (m *mockLogger) record(level, msg string, fields ...logging.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (m *mockLogger) Info(msg string, fields ...logging.Field)  { m.record("info", msg, fields...) }
func (m *mockLogger) Warn(msg string, fields ...logging.Field)  { m.record("warn", msg, fields...) }
func (m *mockLogger) Error(msg string, fields ...logging.Field) { m.record("error", msg, fields...) }
func (m *mockLogger) Debug(msg string, fields ...logging.Field) { m.record("debug", msg, fields...) }
func (m *mockLogger) Fatal(msg string, fields ...logging.Field) { m.record("fatal", msg, fields...) }
func (m *mockLogger) With(fields ...logging.Field) logging.Logger { return m }
func (m *mockLogger) Named(name string) logging.Logger             { return m }

func (m *mockLogger) getEntries() []logEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]logEntry, len(m.entries))
	copy(cp, m.entries)
	return cp
}

func (m *mockLogger) hasEntryContaining(substr string) bool {
	for _, e := range m.getEntries() {
		if strings.Contains(e.msg, substr) {
			return true
		}
	}
	return false
}

func (m *mockLogger) hasLevel(level string) bool {
	for _, e := range m.getEntries() {
		if e.level == level {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Mock: Validator
// ---------------------------------------------------------------------------

type mockValidRequest struct{}

func (r *mockValidRequest) Validate() error { return nil }

type mockInvalidRequest struct {
	errMsg string
}

func (r *mockInvalidRequest) Validate() error {
	return errors.New(r.errMsg)
}

type mockNonValidatorRequest struct {
	Data string
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testGRPCConfig(port int) *config.GRPCConfig {
	return &config.GRPCConfig{
		Host:  "127.0.0.1",
		Port:  port,
		Debug: false,
	}
}

func testGRPCConfigDebug(port int) *config.GRPCConfig {
	return &config.GRPCConfig{
		Host:  "127.0.0.1",
		Port:  port,
		Debug: true,
	}
}

// freePort returns 0 so the OS assigns a free port.
func freePort() int { return 0 }

// ---------------------------------------------------------------------------
// Tests: NewServer
// ---------------------------------------------------------------------------

func TestNewServer_Success(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	logger := newMockLogger()

	srv, err := NewServer(cfg, WithLogger(logger))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer srv.Stop(context.Background())

	if srv.grpcServer == nil {
		t.Fatal("grpcServer should not be nil")
	}
	if srv.listener == nil {
		t.Fatal("listener should not be nil")
	}
	if srv.healthServer == nil {
		t.Fatal("healthServer should not be nil")
	}
	if srv.Addr() == "" {
		t.Fatal("addr should not be empty")
	}
}

func TestNewServer_NilConfig(t *testing.T) {
	_, err := NewServer(nil)
	if err == nil {
		t.Fatal("expected error for nil config")
	}
	if !strings.Contains(err.Error(), "config must not be nil") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestNewServer_InvalidAddress(t *testing.T) {
	cfg := &config.GRPCConfig{
		Host: "999.999.999.999",
		Port: 99999,
	}
	_, err := NewServer(cfg)
	if err == nil {
		t.Fatal("expected error for invalid address")
	}
	if !strings.Contains(err.Error(), "failed to listen") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestNewServer_WithOptions(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	logger := newMockLogger()

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	kp := keepalive.ServerParameters{
		MaxConnectionIdle: 5 * time.Minute,
		Time:              2 * time.Minute,
		Timeout:           500 * time.Millisecond,
	}

	srv, err := NewServer(cfg,
		WithLogger(logger),
		WithMaxRecvMsgSize(32*1024*1024),
		WithMaxSendMsgSize(32*1024*1024),
		WithKeepaliveParams(kp),
		WithGracefulTimeout(20*time.Second),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer srv.Stop(context.Background())

	if srv.opts.maxRecvMsgSize != 32*1024*1024 {
		t.Errorf("maxRecvMsgSize = %d, want %d", srv.opts.maxRecvMsgSize, 32*1024*1024)
	}
	if srv.opts.maxSendMsgSize != 32*1024*1024 {
		t.Errorf("maxSendMsgSize = %d, want %d", srv.opts.maxSendMsgSize, 32*1024*1024)
	}
	if srv.opts.keepaliveParams.MaxConnectionIdle != 5*time.Minute {
		t.Errorf("keepalive MaxConnectionIdle = %v, want 5m", srv.opts.keepaliveParams.MaxConnectionIdle)
	}
	if srv.opts.gracefulTimeout != 20*time.Second {
		t.Errorf("gracefulTimeout = %v, want 20s", srv.opts.gracefulTimeout)
	}

	srv2, err := NewServer(testGRPCConfig(freePort()), WithTLSConfig(tlsCfg))
	if err != nil {
		t.Fatalf("expected no error with TLS config, got: %v", err)
	}
	defer srv2.Stop(context.Background())
}

func TestNewServer_WithOptions_InvalidSizes(t *testing.T) {
	cfg := testGRPCConfig(freePort())

	srv, err := NewServer(cfg,
		WithMaxRecvMsgSize(-1),
		WithMaxSendMsgSize(0),
		WithGracefulTimeout(-5*time.Second),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer srv.Stop(context.Background())

	if srv.opts.maxRecvMsgSize != defaultMaxRecvMsgSize {
		t.Errorf("maxRecvMsgSize = %d, want default %d", srv.opts.maxRecvMsgSize, defaultMaxRecvMsgSize)
	}
	if srv.opts.maxSendMsgSize != defaultMaxSendMsgSize {
		t.Errorf("maxSendMsgSize = %d, want default %d", srv.opts.maxSendMsgSize, defaultMaxSendMsgSize)
	}
	if srv.opts.gracefulTimeout != defaultGracefulTimeout {
		t.Errorf("gracefulTimeout = %v, want default %v", srv.opts.gracefulTimeout, defaultGracefulTimeout)
	}
}

// ---------------------------------------------------------------------------
// Tests: Server lifecycle
// ---------------------------------------------------------------------------

func TestServer_RegisterService(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	logger := newMockLogger()

	srv, err := NewServer(cfg, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	defer srv.Stop(context.Background())

	desc := &grpc.ServiceDesc{
		ServiceName: "test.DummyService",
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
	}

	srv.RegisterService(desc, struct{}{})

	if !logger.hasEntryContaining("grpc service registered") {
		t.Error("expected log entry for service registration")
	}
}

func TestServer_StartStop(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	logger := newMockLogger()

	srv, err := NewServer(cfg, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	time.Sleep(100 * time.Millisecond)

	addr := srv.Addr()
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	healthClient := healthpb.NewHealthClient(conn)
	resp, err := healthClient.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("health status = %v, want SERVING", resp.Status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	if !logger.hasEntryContaining("grpc server stopped gracefully") {
		t.Error("expected graceful stop log entry")
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}

	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop before Start should not error, got: %v", err)
	}
}

func TestServer_DoubleStart(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	defer srv.Stop(context.Background())

	go func() { _ = srv.Start() }()
	time.Sleep(100 * time.Millisecond)

	err = srv.Start()
	if err == nil {
		t.Fatal("expected error on double start")
	}
	if !strings.Contains(err.Error(), "already started") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServer_Addr(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	defer srv.Stop(context.Background())

	addr := srv.Addr()
	if addr == "" {
		t.Fatal("Addr() should return non-empty string")
	}
	if !strings.Contains(addr, "127.0.0.1:") {
		t.Errorf("Addr() = %s, expected 127.0.0.1:*", addr)
	}
}

func TestServer_Addr_NilListener(t *testing.T) {
	srv := &Server{}
	if addr := srv.Addr(); addr != "" {
		t.Errorf("Addr() with nil listener = %q, want empty", addr)
	}
}

func TestServer_GracefulStopTimeout(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	logger := newMockLogger()

	srv, err := NewServer(cfg, WithLogger(logger), WithGracefulTimeout(1*time.Millisecond))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}

	go func() { _ = srv.Start() }()
	time.Sleep(100 * time.Millisecond)

	addr := srv.Addr()
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Tests: Recovery Interceptor
// ---------------------------------------------------------------------------

func TestRecoveryUnaryInterceptor_PanicRecovery(t *testing.T) {
	logger := newMockLogger()
	interceptor := recoveryUnaryInterceptor(logger)

	panicHandler := func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("test panic")
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/PanicMethod"}
	resp, err := interceptor(context.Background(), nil, info, panicHandler)

	if resp != nil {
		t.Errorf("expected nil response, got: %v", resp)
	}
	if err == nil {
		t.Fatal("expected error after panic")
	}

	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected gRPC status error")
	}
	if st.Code() != codes.Internal {
		t.Errorf("code = %v, want Internal", st.Code())
	}

	if !logger.hasLevel("error") {
		t.Error("expected error log entry for panic")
	}
	if !logger.hasEntryContaining("grpc panic recovered") {
		t.Error("expected panic recovery log message")
	}
}

func TestRecoveryUnaryInterceptor_NoPanic(t *testing.T) {
	logger := newMockLogger()
	interceptor := recoveryUnaryInterceptor(logger)

	normalHandler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/NormalMethod"}
	resp, err := interceptor(context.Background(), nil, info, normalHandler)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Errorf("resp = %v, want 'ok'", resp)
	}
	if logger.hasLevel("error") {
		t.Error("should not have error log for normal request")
	}
}

func TestRecoveryStreamInterceptor_PanicRecovery(t *testing.T) {
	logger := newMockLogger()
	interceptor := recoveryStreamInterceptor(logger)

	panicHandler := func(srv interface{}, stream grpc.ServerStream) error {
		panic("stream panic")
	}

	info := &grpc.StreamServerInfo{FullMethod: "/test.Service/PanicStream"}
	err := interceptor(nil, nil, info, panicHandler)

	if err == nil {
		t.Fatal("expected error after stream panic")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected gRPC status error")
	}
	if st.Code() != codes.Internal {
		t.Errorf("code = %v, want Internal", st.Code())
	}
	if !logger.hasEntryContaining("grpc stream panic recovered") {
		t.Error("expected stream panic recovery log")
	}
}

// ---------------------------------------------------------------------------
// Tests: Logging Interceptor
// ---------------------------------------------------------------------------

func TestLoggingUnaryInterceptor_NormalRequest(t *testing.T) {
	logger := newMockLogger()
	interceptor := loggingUnaryInterceptor(logger)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "result", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/GetItem"}
	resp, err := interceptor(context.Background(), nil, info, handler)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "result" {
		t.Errorf("resp = %v, want 'result'", resp)
	}

	if !logger.hasEntryContaining("grpc request") {
		t.Error("expected 'grpc request' log entry")
	}

	entries := logger.getEntries()
	found := false
	for _, e := range entries {
		if e.msg == "grpc request" {
			found = true
			kvStr := fmt.Sprintf("%v", e.fields)
			if !strings.Contains(kvStr, "/test.Service/GetItem") {
				t.Errorf("log entry missing method, kvPairs: %v", e.fields)
			}
			if !strings.Contains(kvStr, "duration_ms") {
				t.Errorf("log entry missing duration_ms, kvPairs: %v", e.fields)
			}
			break
		}
	}
	if !found {
		t.Error("'grpc request' log entry not found")
	}
}

func TestLoggingUnaryInterceptor_SkipHealthCheck(t *testing.T) {
	logger := newMockLogger()
	interceptor := loggingUnaryInterceptor(logger)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "healthy", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	resp, err := interceptor(context.Background(), nil, info, handler)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "healthy" {
		t.Errorf("resp = %v, want 'healthy'", resp)
	}

	if logger.hasEntryContaining("grpc request") {
		t.Error("health check should not be logged")
	}
}

func TestLoggingUnaryInterceptor_ErrorResponse(t *testing.T) {
	logger := newMockLogger()
	interceptor := loggingUnaryInterceptor(logger)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Errorf(codes.NotFound, "not found")
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Missing"}
	_, err := interceptor(context.Background(), nil, info, handler)

	if err == nil {
		t.Fatal("expected error")
	}

	entries := logger.getEntries()
	found := false
	for _, e := range entries {
		if e.msg == "grpc request" {
			kvStr := fmt.Sprintf("%v", e.fields)
			if strings.Contains(kvStr, "NotFound") {
				found = true
			}
			break
		}
	}
	if !found {
		t.Error("expected log entry with NotFound code")
	}
}

func TestLoggingStreamInterceptor_SkipHealthCheck(t *testing.T) {
	logger := newMockLogger()
	interceptor := loggingStreamInterceptor(logger)

	handler := func(srv interface{}, stream grpc.ServerStream) error {
		return nil
	}

	info := &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}
	err := interceptor(nil, nil, info, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if logger.hasEntryContaining("grpc stream") {
		t.Error("health check stream should not be logged")
	}
}

// ---------------------------------------------------------------------------
// Tests: Validation Interceptor
// ---------------------------------------------------------------------------

func TestValidationUnaryInterceptor_ValidRequest(t *testing.T) {
	interceptor := validationUnaryInterceptor()

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "validated", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Create"}
	req := &mockValidRequest{}
	resp, err := interceptor(context.Background(), req, info, handler)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "validated" {
		t.Errorf("resp = %v, want 'validated'", resp)
	}
}

func TestValidationUnaryInterceptor_InvalidRequest(t *testing.T) {
	interceptor := validationUnaryInterceptor()

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called for invalid request")
		return nil, nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Create"}
	req := &mockInvalidRequest{errMsg: "name is required"}
	resp, err := interceptor(context.Background(), req, info, handler)

	if resp != nil {
		t.Errorf("expected nil response, got: %v", resp)
	}
	if err == nil {
		t.Fatal("expected error for invalid request")
	}

	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected gRPC status error")
	}
	if st.Code() != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", st.Code())
	}
	if !strings.Contains(st.Message(), "name is required") {
		t.Errorf("message = %q, want to contain 'name is required'", st.Message())
	}
}

func TestValidationUnaryInterceptor_NoValidator(t *testing.T) {
	interceptor := validationUnaryInterceptor()

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "passthrough", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Get"}
	req := &mockNonValidatorRequest{Data: "hello"}
	resp, err := interceptor(context.Background(), req, info, handler)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "passthrough" {
		t.Errorf("resp = %v, want 'passthrough'", resp)
	}
}

// ---------------------------------------------------------------------------
// Tests: Interceptor chaining
// ---------------------------------------------------------------------------

func TestChainUnaryInterceptors_Order(t *testing.T) {
	var order []string
	var mu sync.Mutex

	makeInterceptor := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			mu.Lock()
			order = append(order, name+"-before")
			mu.Unlock()
			resp, err := handler(ctx, req)
			mu.Lock()
			order = append(order, name+"-after")
			mu.Unlock()
			return resp, err
		}
	}

	chain := chainUnaryInterceptors(
		makeInterceptor("first"),
		makeInterceptor("second"),
		makeInterceptor("third"),
	)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		mu.Lock()
		order = append(order, "handler")
		mu.Unlock()
		return "done", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Chain"}
	resp, err := chain(context.Background(), nil, info, handler)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "done" {
		t.Errorf("resp = %v, want 'done'", resp)
	}

	expected := []string{
		"first-before", "second-before", "third-before",
		"handler",
		"third-after", "second-after", "first-after",
	}
	if len(order) != len(expected) {
		t.Fatalf("order length = %d, want %d; order = %v", len(order), len(expected), order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("order[%d] = %q, want %q; full order = %v", i, order[i], v, order)
		}
	}
}

func TestChainUnaryInterceptors_Empty(t *testing.T) {
	chain := chainUnaryInterceptors()

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "passthrough", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Empty"}
	resp, err := chain(context.Background(), nil, info, handler)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "passthrough" {
		t.Errorf("resp = %v, want 'passthrough'", resp)
	}
}

func TestChainStreamInterceptors_Order(t *testing.T) {
	var order []string
	var mu sync.Mutex

	makeInterceptor := func(name string) grpc.StreamServerInterceptor {
		return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
			mu.Lock()
			order = append(order, name+"-before")
			mu.Unlock()
			err := handler(srv, ss)
			mu.Lock()
			order = append(order, name+"-after")
			mu.Unlock()
			return err
		}
	}

	chain := chainStreamInterceptors(
		makeInterceptor("alpha"),
		makeInterceptor("beta"),
	)

	handler := func(srv interface{}, stream grpc.ServerStream) error {
		mu.Lock()
		order = append(order, "stream-handler")
		mu.Unlock()
		return nil
	}

	info := &grpc.StreamServerInfo{FullMethod: "/test.Service/StreamChain"}
	err := chain(nil, nil, info, handler)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"alpha-before", "beta-before",
		"stream-handler",
		"beta-after", "alpha-after",
	}
	if len(order) != len(expected) {
		t.Fatalf("order length = %d, want %d; order = %v", len(order), len(expected), order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("order[%d] = %q, want %q; full order = %v", i, order[i], v, order)
		}
	}
}

// ---------------------------------------------------------------------------
// Tests: splitMethodName / isHealthCheck
// ---------------------------------------------------------------------------

func TestSplitMethodName(t *testing.T) {
	tests := []struct {
		input       string
		wantService string
		wantMethod  string
	}{
		{"/package.Service/Method", "package.Service", "Method"},
		{"/grpc.health.v1.Health/Check", "grpc.health.v1.Health", "Check"},
		{"NoSlash", "unknown", "NoSlash"},
		{"", "unknown", ""},
		{"/a/b/c", "a/b", "c"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			service, method := splitMethodName(tt.input)
			if service != tt.wantService {
				t.Errorf("splitMethodName(%q) service = %q, want %q", tt.input, service, tt.wantService)
			}
			if method != tt.wantMethod {
				t.Errorf("splitMethodName(%q) method = %q, want %q", tt.input, method, tt.wantMethod)
			}
		})
	}
}

func TestIsHealthCheck(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{"/grpc.health.v1.Health/Check", true},
		{"/grpc.health.v1.Health/Watch", true},
		{"/test.Service/Method", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			if got := isHealthCheck(tt.method); got != tt.want {
				t.Errorf("isHealthCheck(%q) = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests: Reflection registration
// ---------------------------------------------------------------------------

func TestReflectionRegistration_DebugMode(t *testing.T) {
	cfg := testGRPCConfigDebug(freePort())
	logger := newMockLogger()

	srv, err := NewServer(cfg, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	defer srv.Stop(context.Background())

	if !logger.hasEntryContaining("grpc reflection service registered") {
		t.Error("expected reflection registration log in debug mode")
	}
}

func TestReflectionRegistration_ProductionMode(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	logger := newMockLogger()

	srv, err := NewServer(cfg, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	defer srv.Stop(context.Background())

	if logger.hasEntryContaining("grpc reflection service registered") {
		t.Error("reflection should NOT be registered in production mode")
	}
}

// ---------------------------------------------------------------------------
// Tests: GRPCServer accessor / defaults
// ---------------------------------------------------------------------------

func TestServer_GRPCServer(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	defer srv.Stop(context.Background())

	gs := srv.GRPCServer()
	if gs == nil {
		t.Fatal("GRPCServer() should not return nil")
	}
	if gs != srv.grpcServer {
		t.Error("GRPCServer() should return the underlying grpc.Server")
	}
}

func TestNewServer_DefaultLoggerFallback(t *testing.T) {
	cfg := testGRPCConfig(freePort())

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	defer srv.Stop(context.Background())

	if srv.opts.logger == nil {
		t.Fatal("logger should not be nil even without WithLogger option")
	}
}

func TestGRPCConfig_GracefulTimeoutOverride(t *testing.T) {
	cfg := testGRPCConfig(freePort())
	cfg.GracefulTimeout = 42 * time.Second

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	defer srv.Stop(context.Background())

	if srv.opts.gracefulTimeout != 42*time.Second {
		t.Errorf("gracefulTimeout = %v, want 42s from cfg", srv.opts.gracefulTimeout)
	}
}
