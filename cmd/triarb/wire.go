package main

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"triarb/pkg/types"
)

// frameEnvelope extracts just the channel discriminator common to every
// authenticated-stream frame, so the caller can decode the rest against
// the right concrete type.
type frameEnvelope struct {
	Channel string `json:"c"`
}

func frameChannel(data []byte) (string, error) {
	var env frameEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	return env.Channel, nil
}

func unmarshalOrderMessage(data []byte) (types.WSOrderMessage, error) {
	var msg types.WSOrderMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}

func unmarshalBalanceMessage(data []byte) (types.WSBalanceMessage, error) {
	var msg types.WSBalanceMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}

func marshalAuthMsg(msg types.WSAuthMsg) ([]byte, error) {
	return json.Marshal(msg)
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
