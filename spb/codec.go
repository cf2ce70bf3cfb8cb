package spb

// CompressOptions controls optional payload compression applied by the
// Encode* functions.
type CompressOptions struct {
	Enabled   bool
	Algorithm string
}

// BdSeqMetric builds the reserved "bdSeq" metric carried on every NBIRTH and
// on the NDEATH will payload paired with it.
func BdSeqMetric(bdSeq uint64) Metric {
	return Metric{
		Name:      "bdSeq",
		DataType:  UInt64,
		LongValue: bdSeq,
	}
}

// RebirthMetric builds the reserved "Node Control/Rebirth" metric. value is
// false on an outbound NBIRTH and true on an inbound rebirth-request NCMD.
func RebirthMetric(value bool) Metric {
	return Metric{
		Name:         "Node Control/Rebirth",
		DataType:     Boolean,
		BooleanValue: value,
	}
}

func encode(timestamp uint64, metrics []Metric, seq uint64, compress CompressOptions) ([]byte, error) {
	p := &Payload{
		Timestamp: timestamp,
		Metrics:   metrics,
		Seq:       seq,
		HasSeq:    true,
	}

	inner := Marshal(p)

	if !compress.Enabled {
		return inner, nil
	}

	body, err := Compress(compress.Algorithm, inner)
	if err != nil {
		return nil, err
	}

	outer := &Payload{
		Timestamp: timestamp,
		Body:      body,
		Metrics: []Metric{{
			Name:        "algorithm",
			DataType:    String,
			StringValue: algorithmToken(compress.Algorithm),
		}},
	}

	return Marshal(outer), nil
}

func algorithmToken(algorithm string) string {
	switch algorithm {
	case "":
		return AlgorithmGZIP
	default:
		return algorithm
	}
}

// EncodeNodeBirth encodes an NBIRTH payload: metrics plus the reserved
// bdSeq and Node Control/Rebirth=false metrics, seq reset to 0 per session
// (the caller is expected to have already reset its seqnum.Pair).
func EncodeNodeBirth(timestamp uint64, metrics []Metric, bdSeq uint64, compress CompressOptions) ([]byte, error) {
	all := make([]Metric, 0, len(metrics)+2)
	all = append(all, BdSeqMetric(bdSeq), RebirthMetric(false))
	all = append(all, metrics...)

	return encode(timestamp, all, 0, compress)
}

// EncodeDeviceBirth encodes a DBIRTH payload: just the device's metric
// snapshot, no bdSeq.
func EncodeDeviceBirth(timestamp uint64, metrics []Metric, seq uint64, compress CompressOptions) ([]byte, error) {
	return encode(timestamp, metrics, seq, compress)
}

// EncodeData encodes an NDATA or DDATA payload.
func EncodeData(timestamp uint64, metrics []Metric, seq uint64, compress CompressOptions) ([]byte, error) {
	return encode(timestamp, metrics, seq, compress)
}

// EncodeDeath encodes a DDEATH payload (no metrics beyond whatever the
// caller supplies, typically none).
func EncodeDeath(timestamp uint64, seq uint64, compress CompressOptions) ([]byte, error) {
	return encode(timestamp, nil, seq, compress)
}

// EncodeWill encodes the NDEATH-as-MQTT-will payload: just the bdSeq metric,
// no seq (I3: "NDEATH carries no seq").
func EncodeWill(timestamp uint64, bdSeq uint64) []byte {
	p := &Payload{
		Timestamp: timestamp,
		Metrics:   []Metric{BdSeqMetric(bdSeq)},
	}

	return Marshal(p)
}

// EncodeNodeDeath encodes an explicit NDEATH publish, issued by Node.Death()
// rather than delivered as the MQTT will. Its payload is identical in shape
// to the will (just the bdSeq metric, no seq — I3: "NDEATH carries no seq");
// unlike DDEATH, which carries seq like any other DATA/BIRTH publish, NDEATH
// is the one command type I3 singles out as seq-less.
func EncodeNodeDeath(timestamp uint64, bdSeq uint64) []byte {
	return EncodeWill(timestamp, bdSeq)
}

// Decode decodes b, transparently decompressing if the payload carries the
// reserved "algorithm" metric.
func Decode(b []byte) (*Payload, error) {
	p, err := Unmarshal(b)
	if err != nil {
		return nil, err
	}

	algorithm := ""
	for i := range p.Metrics {
		if p.Metrics[i].Name == "algorithm" {
			algorithm = p.Metrics[i].StringValue
			break
		}
	}

	if algorithm == "" {
		return p, nil
	}

	inner, err := Decompress(algorithm, p.Body)
	if err != nil {
		return nil, err
	}

	return Unmarshal(inner)
}
