// Package operations runs the fuel purchase pipeline as a sequence of steps.
//
// A Manager executes registered steps in dependency order, either all of them
// or a single one by ID. The four pipeline steps are:
//
//   - clean: drops duplicates and anomalies from the raw input
//   - enrich: fills missing postal codes through the lookup service
//   - validate: writes the validation report
//   - enhance: adds the price per gallon column
//
// Every step reads the file its predecessor wrote, calls the in-memory operation
// from package dataprocessing and writes its own file before the next step
// starts. A failed step stops the run; later steps stay pending.
//
// Example usage:
//
//	manager, err := operations.NewPipeline(cfg, paths, nil, logger, providers)
//	if err != nil {
//		return err
//	}
//	resp, err := manager.Execute(ctx, operations.OperationRequest{})
package operations
