package repository

import (
	"strings"
	"sync"

	"github.com/anode/modbuspec/pkg/model"
)

// Repository is the indexed in-memory store for a loaded specification.
// All lookups hit precomputed maps; nothing scans device or register lists.
// It holds no behavior beyond storage and retrieval: validation happens in
// the parser, and the whole store is replaced atomically on reload
// (Clear then Populate).
type Repository struct {
	mu                  sync.RWMutex
	functionCodesByCode map[string]model.FunctionCode
	functionCodesByName map[string]model.FunctionCode
	devicesByID         map[string]*model.Device
	devicesByUnitID     map[int]*model.Device
}

func New() *Repository {
	r := &Repository{}
	r.reset()
	return r
}

func (r *Repository) reset() {
	r.functionCodesByCode = make(map[string]model.FunctionCode)
	r.functionCodesByName = make(map[string]model.FunctionCode)
	r.devicesByID = make(map[string]*model.Device)
	r.devicesByUnitID = make(map[int]*model.Device)
}

// Populate clears the repository and indexes the given specification in one
// step. When the specification declares no function codes, the canonical
// eight are used.
func (r *Repository) Populate(functionCodes []model.FunctionCode, devices []*model.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reset()
	if len(functionCodes) == 0 {
		functionCodes = model.DefaultFunctionCodes()
	}
	for _, fc := range functionCodes {
		r.functionCodesByCode[fc.Code] = fc
		r.functionCodesByName[strings.ToLower(fc.Name)] = fc
	}
	for _, d := range devices {
		r.devicesByID[d.ID()] = d
		r.devicesByUnitID[d.UnitID()] = d
	}
}

func (r *Repository) AddFunctionCode(fc model.FunctionCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functionCodesByCode[fc.Code] = fc
	r.functionCodesByName[strings.ToLower(fc.Name)] = fc
}

func (r *Repository) AddDevice(d *model.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devicesByID[d.ID()] = d
	r.devicesByUnitID[d.UnitID()] = d
}

// FunctionCodeByCode finds a function code by its numeric code, e.g. "3".
func (r *Repository) FunctionCodeByCode(code string) (model.FunctionCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fc, ok := r.functionCodesByCode[code]
	return fc, ok
}

// FunctionCodeByName finds a function code by name, case-insensitively.
func (r *Repository) FunctionCodeByName(name string) (model.FunctionCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fc, ok := r.functionCodesByName[strings.ToLower(name)]
	return fc, ok
}

func (r *Repository) DeviceByID(id string) (*model.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devicesByID[id]
	return d, ok
}

func (r *Repository) DeviceByUnitID(unitID int) (*model.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devicesByUnitID[unitID]
	return d, ok
}

func (r *Repository) AllFunctionCodes() []model.FunctionCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.FunctionCode, 0, len(r.functionCodesByCode))
	for _, fc := range r.functionCodesByCode {
		out = append(out, fc)
	}
	return out
}

func (r *Repository) AllDevices() []*model.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Device, 0, len(r.devicesByID))
	for _, d := range r.devicesByID {
		out = append(out, d)
	}
	return out
}

func (r *Repository) FunctionCodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.functionCodesByCode)
}

func (r *Repository) DeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devicesByID)
}

// Clear resets the repository to empty. Used before repopulating on reload.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}
