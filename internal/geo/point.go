package geo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point — каноническое представление географической точки.
// Весь движок работает только с этим типом: нормализация входных форматов
// (пары lng/lat, GeoJSON-массивы из старых клиентов) выполняется на границе
// в DTO, внутрь ядра они не проникают.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// NullPoint — Point с признаком наличия значения, для nullable колонок.
type NullPoint struct {
	Point Point
	Valid bool
}

// Value сериализует точку в текст "lng,lat" для хранения в БД.
func (p NullPoint) Value() (driver.Value, error) {
	if !p.Valid {
		return nil, nil
	}
	return fmt.Sprintf("%s,%s",
		strconv.FormatFloat(p.Point.Lng, 'f', -1, 64),
		strconv.FormatFloat(p.Point.Lat, 'f', -1, 64),
	), nil
}

// Scan восстанавливает точку из текстового представления "lng,lat".
func (p *NullPoint) Scan(src interface{}) error {
	if src == nil {
		*p = NullPoint{}
		return nil
	}

	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("geo: неподдерживаемый тип колонки %T", src)
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return fmt.Errorf("geo: некорректное значение точки %q", raw)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fmt.Errorf("geo: некорректная долгота %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fmt.Errorf("geo: некорректная широта %q: %w", parts[1], err)
	}

	*p = NullPoint{Point: Point{Lng: lng, Lat: lat}, Valid: true}
	return nil
}

// MarshalJSON сериализует точку как объект {lng, lat} либо null.
func (p NullPoint) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Point)
}

// UnmarshalJSON принимает {lng, lat} либо null.
func (p *NullPoint) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NullPoint{}
		return nil
	}
	if err := json.Unmarshal(data, &p.Point); err != nil {
		return err
	}
	p.Valid = true
	return nil
}

// SomePoint оборачивает Point в валидный NullPoint.
func SomePoint(p Point) NullPoint {
	return NullPoint{Point: p, Valid: true}
}

const earthRadiusMeters = 6371000.0

// Distance возвращает расстояние между двумя точками в метрах (гаверсинус).
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// HumanDistance форматирует расстояние в метрах в человекочитаемую строку.
func HumanDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d м", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f км", meters/1000)
}
