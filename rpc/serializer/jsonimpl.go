package serializer

import (
	"encoding/json"

	"github.com/ValentinKolb/oKV/rpc/common"
)

// NewJSONSerializer creates a serializer using json encoding.
// Values are base64 encoded by encoding/json, message types are written by name.
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializerImpl{}
}

type jsonSerializerImpl struct{}

func (jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	return json.Unmarshal(b, msg)
}
