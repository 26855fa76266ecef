package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceVitalsIngestRequestValidateRanges(t *testing.T) {
	tests := []struct {
		name    string
		req     DeviceVitalsIngestRequest
		wantErr bool
	}{
		{"normal vitals", DeviceVitalsIngestRequest{HeartRate: 72, SpO2: 98, Temperature: 36.8}, false},
		{"heart rate at upper bound", DeviceVitalsIngestRequest{HeartRate: 300, SpO2: 98, Temperature: 36.8}, false},
		{"heart rate over bound", DeviceVitalsIngestRequest{HeartRate: 301, SpO2: 98, Temperature: 36.8}, true},
		{"negative heart rate", DeviceVitalsIngestRequest{HeartRate: -1, SpO2: 98, Temperature: 36.8}, true},
		{"spo2 over 100", DeviceVitalsIngestRequest{HeartRate: 72, SpO2: 101, Temperature: 36.8}, true},
		{"temperature below range", DeviceVitalsIngestRequest{HeartRate: 72, SpO2: 98, Temperature: 24.9}, true},
		{"temperature above range", DeviceVitalsIngestRequest{HeartRate: 72, SpO2: 98, Temperature: 45.1}, true},
		{"temperature absent", DeviceVitalsIngestRequest{HeartRate: 72, SpO2: 98}, false},
		{"all values absent", DeviceVitalsIngestRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.ValidateRanges()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
