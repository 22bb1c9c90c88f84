package domain

// Element names of shadow nodes.
const (
	// ElementModel is an instance slot: the origin, or one element of a collection.
	ElementModel = "model"
	// ElementMember is a property slot.
	ElementMember = "member"
)

// Attribute keys, listed in rendering order.
const (
	AttrName        = "name"
	AttrStatus      = "status"
	AttrProperty    = "property"
	AttrInstance    = "instance"
	AttrRuntimeType = "runtimetype"
	AttrOnPC        = "onpc"
	AttrOnCC        = "oncc"
	AttrDeferred    = "deferred"
	AttrRootConfig  = "rootconfig"
)

// OriginPrefix is prepended to the short type name of an origin node.
const OriginPrefix = "(Origin)"

var attrOrder = []string{
	AttrName,
	AttrStatus,
	AttrProperty,
	AttrInstance,
	AttrRuntimeType,
	AttrOnPC,
	AttrOnCC,
	AttrDeferred,
	AttrRootConfig,
}

// AttrRank returns the rendering rank of an attribute key.
// Unknown keys sort after the known ones.
func AttrRank(name string) int {
	for i, k := range attrOrder {
		if k == name {
			return i
		}
	}
	return len(attrOrder)
}

// HandleAttrs are the attributes holding revocable tokens.
var HandleAttrs = []string{AttrOnPC, AttrOnCC, AttrDeferred}
