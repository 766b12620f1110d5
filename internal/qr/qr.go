// Package qr renders scannable codes for deep-link payloads. It wraps the
// external imaging library; the codec neither knows nor cares how its token
// gets rasterized.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PNGSize is the edge length in pixels of generated PNG files.
const PNGSize = 512

// ParseLevel maps a config-level name onto a recovery level.
func ParseLevel(name string) (qrcode.RecoveryLevel, error) {
	switch name {
	case "low":
		return qrcode.Low, nil
	case "medium":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	}
	return qrcode.Medium, fmt.Errorf("qr: unknown error-correction level %q", name)
}

// Version-40 binary-mode capacities per recovery level, in bytes.
var capacity = map[qrcode.RecoveryLevel]int{
	qrcode.Low:     2953,
	qrcode.Medium:  2331,
	qrcode.High:    1663,
	qrcode.Highest: 1273,
}

// LevelFor returns the strongest usable recovery level not above preferred:
// larger payloads keep the preferred level as long as they physically fit,
// then step down toward Low instead of failing outright.
func LevelFor(payloadLen int, preferred qrcode.RecoveryLevel) qrcode.RecoveryLevel {
	level := preferred
	for level > qrcode.Low && payloadLen > capacity[level] {
		level--
	}
	return level
}

// PNG renders payload into PNG bytes.
func PNG(payload string, preferred qrcode.RecoveryLevel) ([]byte, error) {
	level := LevelFor(len(payload), preferred)
	data, err := qrcode.Encode(payload, level, PNGSize)
	if err != nil {
		return nil, fmt.Errorf("qr: render: %w", err)
	}
	return data, nil
}

// WritePNG renders payload into a PNG file at path.
func WritePNG(path, payload string, preferred qrcode.RecoveryLevel) error {
	level := LevelFor(len(payload), preferred)
	if err := qrcode.WriteFile(payload, level, PNGSize, path); err != nil {
		return fmt.Errorf("qr: write %s: %w", path, err)
	}
	return nil
}

// ASCII renders payload as an inverted half-block string suitable for a
// dark terminal. Low recovery keeps the module count down so the code still
// fits on screen.
func ASCII(payload string) (string, error) {
	q, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("qr: render: %w", err)
	}
	return q.ToSmallString(true), nil
}
