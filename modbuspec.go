// Package modbuspec loads Modbus device specifications and executes the
// operations they declare. A specification names a connection, the function
// codes in play and per-device register maps with named accessors; once
// loaded, callers address the bus through function identifiers or accessor
// names instead of raw addresses.
package modbuspec

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/anode/modbuspec/internal/config"
	"github.com/anode/modbuspec/pkg/model"
	"github.com/anode/modbuspec/pkg/parser"
	"github.com/anode/modbuspec/pkg/pool"
	"github.com/anode/modbuspec/pkg/repository"
	"github.com/anode/modbuspec/pkg/service"
	"github.com/anode/modbuspec/pkg/transport"
)

// Spec is the entry point: load a specification document, then resolve
// functions and accessors into executable operations. Safe for concurrent
// use once loaded.
type Spec struct {
	cfg    *config.Config
	logger *zap.Logger
	repo   *repository.Repository
	svc    *service.Service
	async  *service.Async

	mu         sync.RWMutex
	tr         transport.Transport
	connection *model.ConnectionConfig
	loader     *parser.Loader
}

type Option func(*Spec)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Spec) { s.logger = logger }
}

// WithTransport replaces the default simulated transport.
func WithTransport(t transport.Transport) Option {
	return func(s *Spec) { s.tr = t }
}

func WithConfig(cfg *config.Config) Option {
	return func(s *Spec) { s.cfg = cfg }
}

// New builds a Spec with no documents loaded. Until UseTransport or
// Connect swaps it, operations run against an in-memory simulated bus.
func New(opts ...Option) *Spec {
	s := &Spec{
		repo: repository.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.cfg == nil {
		s.cfg = config.Default()
	}
	if s.tr == nil {
		s.tr = transport.NewSimulated(s.logger)
	}
	s.svc = service.New(s.repo, s.supply, s.logger.Named("dispatch"))
	s.async = service.NewAsync(s.cfg.Async.Workers, s.logger.Named("async"))
	return s
}

func (s *Spec) supply() (transport.Transport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tr == nil {
		return nil, errors.New("no transport configured")
	}
	return s.tr, nil
}

// Load parses and installs a specification document. JSON documents are
// treated as profile documents; everything else as XML.
func (s *Spec) Load(data []byte) error {
	var (
		res *parser.Result
		err error
	)
	if looksLikeJSON(data) {
		var pp *parser.ProfileParser
		pp, err = parser.NewProfileParser()
		if err == nil {
			res, err = pp.Parse(data)
		}
	} else {
		res, err = parser.New().Parse(data)
	}
	if err != nil {
		return err
	}
	s.install(res)
	return nil
}

// LoadFile loads a specification from disk, picking the parser by
// extension (.json for profile documents, XML otherwise).
func (s *Spec) LoadFile(path string) error {
	var (
		res *parser.Result
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var pp *parser.ProfileParser
		pp, err = parser.NewProfileParser()
		if err == nil {
			res, err = pp.ParseFile(path)
		}
	} else {
		res, err = parser.New().ParseFile(path)
	}
	if err != nil {
		return err
	}
	s.install(res)
	return nil
}

// LoadNamed resolves a specification by name against the configured
// search paths. Results are cached across calls.
func (s *Spec) LoadNamed(name string) error {
	s.mu.Lock()
	if s.loader == nil {
		loader, err := parser.NewLoader(s.cfg.Specs.SearchPaths)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.loader = loader
	}
	loader := s.loader
	s.mu.Unlock()

	res, err := loader.Load(name)
	if err != nil {
		return err
	}
	s.install(res)
	return nil
}

func (s *Spec) install(res *parser.Result) {
	s.repo.Populate(res.FunctionCodes, res.Devices)
	s.mu.Lock()
	s.connection = res.Connection
	s.mu.Unlock()
	s.logger.Info("specification loaded",
		zap.Int("function_codes", s.repo.FunctionCodeCount()),
		zap.Int("devices", s.repo.DeviceCount()))
}

// Function resolves a function identifier (numeric code or name) to a
// fluent operation.
func (s *Spec) Function(identifier string) (*service.Operation, error) {
	return s.svc.Function(identifier)
}

// Accessor resolves an accessor name across all loaded devices.
func (s *Spec) Accessor(name string) (*service.AccessorOperation, error) {
	return s.svc.Accessor(name)
}

// AccessorOn resolves an accessor name on a specific device.
func (s *Spec) AccessorOn(deviceID, name string) (*service.AccessorOperation, error) {
	return s.svc.AccessorOn(deviceID, name)
}

// ReadRegister reads a named holding register, enforcing its access flags.
func (s *Spec) ReadRegister(ctx context.Context, deviceID, registerName string) (int, error) {
	return s.svc.ReadRegister(ctx, deviceID, registerName)
}

// WriteRegister writes a named holding register, enforcing its access flags.
func (s *Spec) WriteRegister(ctx context.Context, deviceID, registerName string, value int) error {
	return s.svc.WriteRegister(ctx, deviceID, registerName, value)
}

// Call resolves and executes a read function in one step.
func (s *Spec) Call(ctx context.Context, identifier string, unitID, address, quantity int) service.Result {
	return s.svc.CallFunction(ctx, identifier, unitID, address, quantity)
}

// Async returns the shared background runner for future-based calls.
func (s *Spec) Async() *service.Async { return s.async }

func (s *Spec) Device(id string) (*model.Device, bool) { return s.repo.DeviceByID(id) }

func (s *Spec) DeviceByUnitID(unitID int) (*model.Device, bool) {
	return s.repo.DeviceByUnitID(unitID)
}

func (s *Spec) Devices() []*model.Device { return s.repo.AllDevices() }

func (s *Spec) FunctionCodes() []model.FunctionCode { return s.repo.AllFunctionCodes() }

// ConnectionConfig returns the connection block of the loaded
// specification, or nil when none was declared.
func (s *Spec) ConnectionConfig() *model.ConnectionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connection
}

// UseTransport swaps the transport serving subsequent operations. The
// previous transport is not disconnected; the caller owns its lifecycle.
func (s *Spec) UseTransport(t transport.Transport) {
	s.mu.Lock()
	s.tr = t
	s.mu.Unlock()
}

// Connect dials the connection declared by the loaded specification and
// installs it as the active transport.
func (s *Spec) Connect() error {
	cfg := s.ConnectionConfig()
	if cfg == nil {
		return errors.New("loaded specification declares no connection")
	}
	client, err := transport.FromConfig(*cfg)
	if err != nil {
		return err
	}
	if err := client.Connect(); err != nil {
		return err
	}
	s.UseTransport(client)
	s.logger.Info("transport connected", zap.String("type", cfg.Type()))
	return nil
}

// NewPool builds a connection pool whose factory dials the specification's
// connection block. Pool size and borrow timeout come from configuration.
func (s *Spec) NewPool() (*pool.Pool, error) {
	cfg := s.ConnectionConfig()
	if cfg == nil {
		return nil, errors.New("loaded specification declares no connection")
	}
	factory := func() (transport.Transport, error) {
		client, err := transport.FromConfig(*cfg)
		if err != nil {
			return nil, err
		}
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("pool connection failed: %w", err)
		}
		return client, nil
	}
	return pool.New(pool.Options{
		Factory:                 factory,
		Size:                    s.cfg.Pool.Size,
		BorrowTimeout:           s.cfg.Pool.BorrowTimeout,
		DisableValidateOnBorrow: !s.cfg.Pool.ValidateBorrow,
		Logger:                  s.logger.Named("pool"),
	})
}

func (s *Spec) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tr != nil && s.tr.IsConnected()
}

// Close disconnects the active transport.
func (s *Spec) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr == nil {
		return nil
	}
	return s.tr.Disconnect()
}

func looksLikeJSON(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
