package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	reject := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err == nil {
			t.Fatalf("expected validation failure")
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	obsSchema := compile("obs.schema.json")
	actSchema := compile("act.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "agent_name":"builder1",
	  "capabilities":{"event_cursor":true,"max_queue":8}
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "agent_id":"A1",
	  "resume_token":"resume_123",
	  "world_params":{
	    "tick_rate_hz":5,
	    "chunk_size":[16,16,16],
	    "height":64,
	    "boundary_r":256,
	    "obs_radius":7,
	    "button_hold_ticks":10,
	    "seed":1337
	  },
	  "catalogs":{
	    "block_palette":{"digest":"deadbeef","count":10}
	  }
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var obs any
	_ = json.Unmarshal([]byte(`{
	  "type":"OBS",
	  "protocol_version":"1.0",
	  "tick":42,
	  "agent_id":"A1",
	  "self":{"focus":[0,4,0]},
	  "voxels":{
	    "center":[0,4,0],
	    "radius":7,
	    "encoding":"OPS",
	    "ops":[{"d":[0,0,0],"b":3}],
	    "rots":[{"d":[0,0,0],"up":"+Y","front":"-Z"}]
	  },
	  "outputs":[{"pos":[0,4,0],"dir":"-Z","signal":1}],
	  "blocks":[{"pos":[1,4,0],"signal":1,"timer":3}],
	  "events":[{"type":"LOGIC_OUTPUT","pos":[0,4,0]}]
	}`), &obs)
	validate(obsSchema, obs)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "tick":42,
	  "agent_id":"A1",
	  "instants":[
	    {"id":"I1","type":"PLACE","pos":[0,4,0],"block":"AND_GATE","up":"+Y","front":"-Z"},
	    {"id":"I2","type":"INTERACT","pos":[1,4,0]}
	  ]
	}`), &act)
	validate(actSchema, act)

	var badAct any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "tick":42,
	  "agent_id":"A1",
	  "instants":[{"id":"I1","type":"TELEPORT"}]
	}`), &badAct)
	reject(actSchema, badAct)
}
