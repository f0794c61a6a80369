package currency

import "fmt"

// Operation is the pool operation the pair is set up for.
type Operation int

const (
	SwapGivenInput Operation = iota
	SwapGivenProceeds
	Add
)

func (o Operation) String() string {
	switch o {
	case SwapGivenInput:
		return "swap_given_input"
	case SwapGivenProceeds:
		return "swap_given_proceeds"
	case Add:
		return "add"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Inverted is the operation after the legs trade places.
func (o Operation) Inverted() Operation {
	switch o {
	case SwapGivenInput:
		return SwapGivenProceeds
	case SwapGivenProceeds:
		return SwapGivenInput
	default:
		return SwapGivenInput
	}
}

func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func ParseOperation(s string) (Operation, error) {
	switch s {
	case "swap_given_input":
		return SwapGivenInput, nil
	case "swap_given_proceeds":
		return SwapGivenProceeds, nil
	case "add":
		return Add, nil
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideB {
		return "B"
	}
	return "A"
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Driving names the leg the user drives and the mode it is driven in.
type Driving struct {
	Leg  Side      `json:"leg"`
	Mode Operation `json:"mode"`
}

type ActionKind int

const (
	ActionTypeA ActionKind = iota
	ActionTypeB
	ActionFlip
	ActionSetOperation
)

type Action struct {
	Kind      ActionKind
	Operation Operation
}

func sideFor(mode Operation, current Side) Side {
	switch mode {
	case SwapGivenInput:
		return SideA
	case SwapGivenProceeds:
		return SideB
	default:
		return current
	}
}

// Reduce is the only transition function for Driving.
func Reduce(d Driving, a Action) Driving {
	switch a.Kind {
	case ActionTypeA:
		return Driving{Leg: SideA, Mode: SwapGivenInput}
	case ActionTypeB:
		return Driving{Leg: SideB, Mode: SwapGivenProceeds}
	case ActionFlip:
		mode := d.Mode.Inverted()
		return Driving{Leg: sideFor(mode, d.Leg), Mode: mode}
	case ActionSetOperation:
		return Driving{Leg: sideFor(a.Operation, d.Leg), Mode: a.Operation}
	}
	return d
}

// Pair is the state of a two-leg trade form.
type Pair struct {
	A             Leg     `json:"a"`
	B             Leg     `json:"b"`
	Driving       Driving `json:"driving"`
	LastTypedMint string  `json:"last_typed_mint"`
}

func NewPair() *Pair {
	return &Pair{Driving: Driving{Leg: SideA, Mode: SwapGivenInput}}
}

func (p *Pair) Operation() Operation { return p.Driving.Mode }

func (p *Pair) Dispatch(a Action) {
	p.Driving = Reduce(p.Driving, a)
}

func (p *Pair) SetPoolOperation(op Operation) {
	p.Dispatch(Action{Kind: ActionSetOperation, Operation: op})
}

func (p *Pair) SetLastTypedAccount(mint string) {
	p.LastTypedMint = mint
}

func (p *Pair) Leg(s Side) *Leg {
	if s == SideB {
		return &p.B
	}
	return &p.A
}

// InputChangeA handles the user typing into leg A.
func (p *Pair) InputChangeA(val string) {
	p.Dispatch(Action{Kind: ActionTypeA})
	if p.A.Amount != val {
		p.SetLastTypedAccount(p.A.MintAddress)
	}
	p.A.SetAmount(val)
}

// InputChangeB handles the user typing into leg B.
func (p *Pair) InputChangeB(val string) {
	p.Dispatch(Action{Kind: ActionTypeB})
	if p.B.Amount != val {
		p.SetLastTypedAccount(p.B.MintAddress)
	}
	p.B.SetAmount(val)
}

// SwapSides exchanges the legs' mints and amounts and inverts the operation.
// Quotes always run A to B, so the typed mint moves to the new A leg and B
// takes the next computed output.
func (p *Pair) SwapSides() {
	p.A, p.B = p.B, p.A
	p.Dispatch(Action{Kind: ActionFlip})
	p.SetLastTypedAccount(p.A.MintAddress)
}

// ShouldOverwrite reports whether a computed amount may replace the leg's
// amount. A leg the user is currently typing into is left alone.
func (p *Pair) ShouldOverwrite(s Side) bool {
	if p.LastTypedMint == "" || p.Driving.Leg != s {
		return true
	}
	return p.Leg(s).MintAddress != p.LastTypedMint
}
