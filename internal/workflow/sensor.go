package workflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/shaiso/tetractl/internal/tetration"
)

const loopbackIPv4 = "127.0.0.1"

// FindSensors возвращает все записи сенсоров хоста, включая удалённые.
func (s *Service) FindSensors(ctx context.Context, host string) ([]tetration.Sensor, error) {
	sensors, err := s.api.ListSensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}

	var matched []tetration.Sensor
	for _, sensor := range sensors {
		if sensor.HostName == host {
			matched = append(matched, sensor)
		}
	}
	return matched, nil
}

// SensorDeletion — итог удаления одного UUID.
type SensorDeletion struct {
	UUID    string `json:"uuid"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// SensorResult — итог DeleteSensor.
type SensorResult struct {
	Outcome   Outcome          `json:"outcome"`
	Host      string           `json:"host"`
	IPs       []string         `json:"ips"`
	UUIDs     []string         `json:"uuids"`
	Deletions []SensorDeletion `json:"deletions,omitempty"`
}

// DeleteSensor удаляет все сенсоры хоста.
//
// Хост может иметь несколько UUID после перерегистраций. Удаление
// выполняется, только если ip входит в набор не-loopback IPv4 адресов
// хоста. Каждый UUID удаляется и отчитывается отдельно.
func (s *Service) DeleteSensor(ctx context.Context, host, ip string) (*SensorResult, error) {
	if host == "" || ip == "" {
		return nil, fmt.Errorf("%w: host name and ip", ErrMissingField)
	}

	sensors, err := s.FindSensors(ctx, host)
	if err != nil {
		return nil, err
	}

	result := &SensorResult{Host: host, IPs: []string{}, UUIDs: []string{}}

	live := 0
	for _, sensor := range sensors {
		if sensor.IsDeleted() {
			continue
		}
		live++

		for _, iface := range sensor.Interfaces {
			if iface.FamilyType != tetration.FamilyIPv4 || iface.IP == loopbackIPv4 {
				continue
			}
			if !slices.Contains(result.IPs, iface.IP) {
				result.IPs = append(result.IPs, iface.IP)
			}
		}
		if !slices.Contains(result.UUIDs, sensor.UUID) {
			result.UUIDs = append(result.UUIDs, sensor.UUID)
		}
	}

	switch {
	case len(sensors) == 0:
		result.Outcome = OutcomeNotFound
		return result, nil
	case live == 0:
		result.Outcome = OutcomeAlreadyDeleted
		return result, nil
	case !slices.Contains(result.IPs, ip):
		s.logger.Warn("ip does not belong to host, nothing deleted", "host", host, "ip", ip, "host_ips", result.IPs)
		result.Outcome = OutcomeIPMismatch
		return result, nil
	}

	failed := 0
	for _, id := range result.UUIDs {
		deletion := SensorDeletion{UUID: id}
		if err := s.api.DeleteSensor(ctx, id); err != nil {
			failed++
			deletion.Error = err.Error()
		} else {
			deletion.Deleted = true
			s.logger.Info("sensor deleted", "host", host, "uuid", id)
		}
		result.Deletions = append(result.Deletions, deletion)
	}

	switch {
	case failed == 0:
		result.Outcome = OutcomeDeleted
		return result, nil
	case failed == len(result.UUIDs):
		result.Outcome = OutcomeFailed
	default:
		result.Outcome = OutcomePartial
	}
	return result, fmt.Errorf("%w: %d of %d sensors of %s not deleted", ErrPartialFailure, failed, len(result.UUIDs), host)
}
