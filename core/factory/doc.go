// Package factory holds the generic registry used to build pluggable engine
// modules (dispatch strategies, metrics sinks) from configuration. A module
// is selected by a type string and configured by a raw map which the factory
// decodes into its own typed settings:
//
//	reg := factory.NewRegistry[optimize.DispatchStrategy]()
//	_ = reg.Register("heuristic", func(conf map[string]any) (optimize.DispatchStrategy, error) {
//	    cfg := optimize.DefaultConfig()
//	    if err := factory.Decode(conf, &cfg); err != nil {
//	        return nil, err
//	    }
//	    return optimize.NewHeuristicStrategy(cfg, nil), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "heuristic"})
package factory
