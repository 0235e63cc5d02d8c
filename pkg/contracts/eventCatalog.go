package contracts

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrUnknownEvent = errors.New("unknown event")

type EventDefinition struct {
	Name      string
	Signature string
	Topic     common.Hash
	Event     abi.Event
}

// EventCatalog is an immutable name -> signature -> topic-0 table built once
// at startup from a contract ABI.
type EventCatalog struct {
	byName  map[string]*EventDefinition
	byTopic map[common.Hash]*EventDefinition
	names   []string
}

func NewEventCatalog(contractAbi abi.ABI, eventNames []string) (*EventCatalog, error) {
	catalog := &EventCatalog{
		byName:  make(map[string]*EventDefinition, len(eventNames)),
		byTopic: make(map[common.Hash]*EventDefinition, len(eventNames)),
		names:   make([]string, 0, len(eventNames)),
	}

	for _, name := range eventNames {
		event, ok := contractAbi.Events[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s not found in abi", ErrUnknownEvent, name)
		}
		if _, dup := catalog.byName[name]; dup {
			continue
		}

		signature := CanonicalSignature(event.RawName, event.Inputs)
		topic := event.ID
		if topic == (common.Hash{}) {
			topic = TopicForSignature(signature)
		}

		def := &EventDefinition{
			Name:      name,
			Signature: signature,
			Topic:     topic,
			Event:     event,
		}
		catalog.byName[name] = def
		catalog.byTopic[topic] = def
		catalog.names = append(catalog.names, name)
	}
	return catalog, nil
}

func (c *EventCatalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *EventCatalog) Get(name string) (*EventDefinition, bool) {
	def, ok := c.byName[name]
	return def, ok
}

// TopicsFor returns topic-0 hashes for names, in order.
func (c *EventCatalog) TopicsFor(names []string) ([]common.Hash, error) {
	topics := make([]common.Hash, 0, len(names))
	for _, name := range names {
		def, ok := c.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
		}
		topics = append(topics, def.Topic)
	}
	return topics, nil
}

// DecodeLog matches a log's topic-0 against the catalog and decodes both
// indexed (topics) and non-indexed (data) arguments into a name->value map.
func (c *EventCatalog) DecodeLog(log *types.Log) (*EventDefinition, map[string]any, error) {
	if len(log.Topics) == 0 {
		return nil, nil, fmt.Errorf("%w: log has no topics", ErrUnknownEvent)
	}
	def, ok := c.byTopic[log.Topics[0]]
	if !ok {
		return nil, nil, fmt.Errorf("%w: topic %s", ErrUnknownEvent, log.Topics[0].Hex())
	}

	args := make(map[string]any, len(def.Event.Inputs))
	if err := def.Event.Inputs.UnpackIntoMap(args, log.Data); err != nil {
		return nil, nil, fmt.Errorf("failed to unpack %s data: %w", def.Name, err)
	}

	var indexed abi.Arguments
	for _, input := range def.Event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s topics: %w", def.Name, err)
		}
	}
	return def, args, nil
}
