package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const CartEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "shopcart",
	"name": "cart_event",
	"fields" : [
		{"name": "type", "type": "string"},
		{"name": "session_id", "type": "string"},
		{"name": "title", "type": "string"},
		{"name": "quantity", "type": "int"},
		{"name": "unit_price_minor", "type": "long"},
		{"name": "cart_total_minor", "type": "long"},
		{"name": "currency", "type": "string"},
		{"name": "item_count", "type": "int"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// A CartEventV1 is the wire form of a cart mutation.
// Amounts are in minor units of Currency.
type CartEventV1 struct {
	Type           string    `avro:"type"`
	SessionID      string    `avro:"session_id"`
	Title          string    `avro:"title"`
	Quantity       int       `avro:"quantity"`
	UnitPriceMinor int64     `avro:"unit_price_minor"`
	CartTotalMinor int64     `avro:"cart_total_minor"`
	Currency       string    `avro:"currency"`
	ItemCount      int       `avro:"item_count"`
	OccurredAt     time.Time `avro:"occurred_at"`
}

// CartEventV1Avro returns the parsed [CartEventSchemaTextV1].
// It panics if the schema text is invalid.
func CartEventV1Avro() avro.Schema {
	return avro.MustParse(CartEventSchemaTextV1)
}
