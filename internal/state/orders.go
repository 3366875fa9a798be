package state

import "github.com/ashkar-house/realms/internal/hexgrid"

// OrderKind discriminates Order's variants.
type OrderKind string

const (
	OrderMove               OrderKind = "move"
	OrderResearch           OrderKind = "research"
	OrderConstruction       OrderKind = "construction"
	OrderRecruit            OrderKind = "recruit"
	OrderDiplomatic         OrderKind = "diplomatic"
	OrderEventResponse      OrderKind = "event_response"
	OrderResourceAllocation OrderKind = "resource_allocation"
)

// DiplomaticActionType enumerates the diplomatic order payloads.
type DiplomaticActionType string

const (
	ActionDeclareWar        DiplomaticActionType = "declare_war"
	ActionProposePeace      DiplomaticActionType = "propose_peace"
	ActionProposeAlliance   DiplomaticActionType = "propose_alliance"
	ActionBreakAlliance     DiplomaticActionType = "break_alliance"
	ActionProposeTruce      DiplomaticActionType = "propose_truce"
	ActionProposeVassalage  DiplomaticActionType = "propose_vassalage"
	ActionSendMessage       DiplomaticActionType = "send_message"
	ActionOfferTrade        DiplomaticActionType = "offer_trade"
)

// TradeOffer is the payload of an offer_trade diplomatic order.
type TradeOffer struct {
	Offers map[string]int `json:"offers"`
	Wants  map[string]int `json:"wants"`
}

// Order is a tagged union over every order variant a player or the AI
// governor may submit for a turn.
type Order struct {
	Kind OrderKind `json:"kind"`

	// move
	UnitID string          `json:"unitId,omitempty"`
	Path   []hexgrid.Coord `json:"path,omitempty"`

	// research
	TechID          string `json:"techId,omitempty"`
	PointsAllocated int    `json:"pointsAllocated,omitempty"`

	// construction / recruit
	SettlementID        string `json:"settlementId,omitempty"`
	BuildingDefinitionID string `json:"buildingDefinitionId,omitempty"`
	UnitDefinitionID    string `json:"unitDefinitionId,omitempty"`

	// diplomatic
	ActionType  DiplomaticActionType `json:"actionType,omitempty"`
	TargetCivID string               `json:"targetCivId,omitempty"`
	Message     string               `json:"message,omitempty"`
	Trade       *TradeOffer          `json:"trade,omitempty"`

	// event_response
	EventInstanceID string `json:"eventInstanceId,omitempty"`
	ChoiceID        string `json:"choiceId,omitempty"`

	// resource_allocation
	AllocationCivID string             `json:"allocationCivId,omitempty"`
	Weights         map[string]float64 `json:"weights,omitempty"`
}

// PlayerOrders is one player's full order batch for a turn.
type PlayerOrders struct {
	PlayerID       string  `json:"playerId"`
	CivilizationID string  `json:"civilizationId"`
	TurnNumber     int     `json:"turnNumber"`
	Orders         []Order `json:"orders"`
	SubmittedAt    string  `json:"submittedAt"`
}
