package models

import (
	"fmt"
	"strings"
	"time"
)

// BlockStatus is the lifecycle of a block: planned, then done exactly once.
type BlockStatus string

const (
	BlockPlanned BlockStatus = "planned"
	BlockDone    BlockStatus = "done"
)

// Block is one slot of a day's plan.
type Block struct {
	Block         int         `yaml:"block" json:"block"`
	Bucket        string      `yaml:"bucket" json:"bucket"`
	Title         string      `yaml:"title" json:"title"`
	ExpectedScore float64     `yaml:"expected_score" json:"expected_score"`
	Status        BlockStatus `yaml:"status" json:"status"`
	// TaskID is the originating task, zero for placeholders and legacy records.
	TaskID int `yaml:"task_id,omitempty" json:"task_id,omitempty"`
}

// Completed reports whether the block has been logged.
func (b *Block) Completed() bool {
	return b.Status == BlockDone
}

func (b *Block) guardMutable() error {
	if b.Completed() {
		return &BlockCompletedError{Block: b.Block}
	}
	return nil
}

// MarkDone transitions the block to done. A done block cannot be marked again.
func (b *Block) MarkDone() error {
	if err := b.guardMutable(); err != nil {
		return err
	}
	b.Status = BlockDone
	return nil
}

// UpdateContent replaces the bucket and title of a planned block.
func (b *Block) UpdateContent(bucket, title string) error {
	if err := b.guardMutable(); err != nil {
		return err
	}
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(title) == "" {
		return fmt.Errorf("block %d: bucket and title must not be empty", b.Block)
	}
	b.Bucket = bucket
	b.Title = title
	return nil
}

// Validate checks the structural invariants of a block record.
func (b *Block) Validate() error {
	if b.Block < 1 {
		return fmt.Errorf("block number %d must be positive", b.Block)
	}
	if strings.TrimSpace(b.Bucket) == "" {
		return fmt.Errorf("block %d: bucket must not be empty", b.Block)
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("block %d: title must not be empty", b.Block)
	}
	if b.Status != BlockPlanned && b.Status != BlockDone {
		return fmt.Errorf("block %d: status %q must be planned or done", b.Block, b.Status)
	}
	return nil
}

// Plan is a day's ordered sequence of blocks.
type Plan struct {
	Date   string  `yaml:"date" json:"date"`
	Blocks []Block `yaml:"blocks" json:"blocks"`
}

// FindBlock returns the block with the given number.
func (p *Plan) FindBlock(number int) (*Block, error) {
	for i := range p.Blocks {
		if p.Blocks[i].Block == number {
			return &p.Blocks[i], nil
		}
	}
	return nil, fmt.Errorf("block %d in plan %s: %w", number, p.Date, ErrNotFound)
}

// DoneCount returns the number of completed blocks.
func (p *Plan) DoneCount() int {
	n := 0
	for i := range p.Blocks {
		if p.Blocks[i].Completed() {
			n++
		}
	}
	return n
}

// Validate checks the date and that block numbers are unique.
func (p *Plan) Validate() error {
	if _, err := time.Parse(DateLayout, p.Date); err != nil {
		return fmt.Errorf("plan date %q must be YYYY-MM-DD", p.Date)
	}
	seen := make(map[int]bool, len(p.Blocks))
	for i := range p.Blocks {
		if err := p.Blocks[i].Validate(); err != nil {
			return fmt.Errorf("plan %s: %w", p.Date, err)
		}
		if seen[p.Blocks[i].Block] {
			return fmt.Errorf("plan %s: duplicate block number %d", p.Date, p.Blocks[i].Block)
		}
		seen[p.Blocks[i].Block] = true
	}
	return nil
}
