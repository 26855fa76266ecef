package fhir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sequentialIDs(prefix string) newIDFunc {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}

func TestProjectObservationsOnePerPresentVital(t *testing.T) {
	hr, spo2, temp := 72, 98, 36.8
	r := Reading{HeartRate: &hr, SpO2: &spo2, Temperature: &temp, ReadingAt: time.Now(), DeviceID: "dev-1"}

	obs := projectObservations(r, sequentialIDs("obs-"))
	require.Len(t, obs, 3)

	codes := map[string]bool{}
	for _, o := range obs {
		require.Equal(t, "Observation", o.ResourceType)
		require.Equal(t, "final", o.Status)
		require.Equal(t, "Device/dev-1", o.Device.Reference)
		codes[o.Code.Coding[0].Code] = true
	}
	require.True(t, codes[loincHeartRate])
	require.True(t, codes[loincSpO2])
	require.True(t, codes[loincTemperature])
}

func TestProjectObservationsSkipsMissingVitals(t *testing.T) {
	spo2 := 98
	r := Reading{SpO2: &spo2, ReadingAt: time.Now(), DeviceID: "dev-1"}
	obs := projectObservations(r, sequentialIDs("obs-"))
	require.Len(t, obs, 1)
	require.Equal(t, loincSpO2, obs[0].Code.Coding[0].Code)
}

func TestWrapBundleCarriesOrganizationTag(t *testing.T) {
	hr := 72
	r := Reading{HeartRate: &hr, ReadingAt: time.Now(), DeviceID: "dev-1"}
	obs := projectObservations(r, sequentialIDs("obs-"))
	b := wrapBundle(obs, "org-42", sequentialIDs("bundle-"), time.Now())

	require.Equal(t, "Bundle", b.ResourceType)
	require.Equal(t, "collection", b.Type)
	require.Equal(t, 1, b.Total)
	require.Equal(t, "org-42", b.Meta.Tag[0].Code)
}

func TestSameReadingProjectsIdenticalExceptIdsAndTimestamp(t *testing.T) {
	hr, spo2 := 72, 98
	readingAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Reading{HeartRate: &hr, SpO2: &spo2, ReadingAt: readingAt, DeviceID: "dev-1"}

	obsA := projectObservations(r, sequentialIDs("a-"))
	obsB := projectObservations(r, sequentialIDs("b-"))

	require.Len(t, obsA, len(obsB))
	for i := range obsA {
		require.Equal(t, obsA[i].Code, obsB[i].Code)
		require.Equal(t, obsA[i].ValueQuantity, obsB[i].ValueQuantity)
		require.Equal(t, obsA[i].Device, obsB[i].Device)
		require.Equal(t, obsA[i].EffectiveDateTime, obsB[i].EffectiveDateTime)
		require.NotEqual(t, obsA[i].ID, obsB[i].ID)
	}
}
