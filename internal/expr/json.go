package expr

import "encoding/json"

func marshal(e Expr) ([]byte, error) { return json.Marshal(e.Encode()) }

func (l Literal) MarshalJSON() ([]byte, error)      { return marshal(l) }
func (g Get) MarshalJSON() ([]byte, error)          { return marshal(g) }
func (f FeatureState) MarshalJSON() ([]byte, error) { return marshal(f) }
func (z Zoom) MarshalJSON() ([]byte, error)         { return marshal(z) }
func (b Boolean) MarshalJSON() ([]byte, error)      { return marshal(b) }
func (c Compare) MarshalJSON() ([]byte, error)      { return marshal(c) }
func (a All) MarshalJSON() ([]byte, error)          { return marshal(a) }
func (a Any) MarshalJSON() ([]byte, error)          { return marshal(a) }
func (n Not) MarshalJSON() ([]byte, error)          { return marshal(n) }
func (c Case) MarshalJSON() ([]byte, error)         { return marshal(c) }
func (m Match) MarshalJSON() ([]byte, error)        { return marshal(m) }
func (i Interpolate) MarshalJSON() ([]byte, error)  { return marshal(i) }
