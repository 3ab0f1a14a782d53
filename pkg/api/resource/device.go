package resource

import (
	"time"

	"github.com/creamline/iotcore/pkg/model"
)

type DeviceResource struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	LastSeenAt    *time.Time `json:"lastSeenAt,omitempty"`
	LastOfflineAt *time.Time `json:"lastOfflineAt,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

type DeviceListResource struct {
	Devices []*DeviceResource `json:"devices"`
}

func NewDevice(m *model.Device) (out *DeviceResource) {
	out = &DeviceResource{
		ID:            m.ID,
		Kind:          m.Kind,
		Status:        string(m.Status),
		LastOfflineAt: m.LastOfflineAt,
	}

	if !m.LastSeenAt.IsZero() {
		out.LastSeenAt = &time.Time{}
		*out.LastSeenAt = m.LastSeenAt.Round(time.Second)
	}
	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = &time.Time{}
		*out.UpdatedAt = m.UpdatedAt.Round(time.Second)
	}

	return // out
}

func NewDeviceList(ms []model.Device) (out *DeviceListResource) {
	out = &DeviceListResource{
		Devices: make([]*DeviceResource, 0, len(ms)),
	}

	for i := range ms {
		out.Devices = append(out.Devices, NewDevice(&ms[i]))
	}

	return // out
}
