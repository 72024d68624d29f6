package vectordb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/domain/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// LocalDBFile 本地引擎在持久化目录下使用的文件名
const LocalDBFile = "vectors.db"

// VectorCollectionRow 已创建的集合
type VectorCollectionRow struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(128);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (VectorCollectionRow) TableName() string { return "vector_collection" }

// VectorDocumentRow 集合内的一条文档，(collection, doc_id) 唯一
type VectorDocumentRow struct {
	Id         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Collection string    `gorm:"column:collection;type:varchar(128);not null;uniqueIndex:uniq_collection_doc,priority:1"`
	DocId      string    `gorm:"column:doc_id;type:varchar(191);not null;uniqueIndex:uniq_collection_doc,priority:2"`
	Content    string    `gorm:"column:content;type:text"`
	Metadata   string    `gorm:"column:metadata;type:text"`
	Vector     []byte    `gorm:"column:vector"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (VectorDocumentRow) TableName() string { return "vector_document" }

// LocalEngine 基于 gorm 的持久化引擎，所有集合共用一个数据库
type LocalEngine struct {
	db     *gorm.DB
	ownsDB bool
}

var _ repository.VectorEngine = (*LocalEngine)(nil)

// NewLocalEngine 复用已有连接（mysql 或 sqlite）
func NewLocalEngine(db *gorm.DB) (*LocalEngine, error) {
	if db == nil {
		return nil, errors.New("gorm db is nil")
	}
	if err := db.AutoMigrate(&VectorCollectionRow{}, &VectorDocumentRow{}); err != nil {
		return nil, fmt.Errorf("migrate vector tables: %w", err)
	}
	return &LocalEngine{db: db}, nil
}

// NewLocalEngineAt 在 dir/vectors.db 打开独立的 sqlite 文件
func NewLocalEngineAt(dir string) (*LocalEngine, error) {
	if dir == "" {
		return nil, errors.New("persist directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create persist directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, LocalDBFile)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open local vector db: %w", err)
	}
	// sqlite 单写者，避免 database is locked
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	e, err := NewLocalEngine(db)
	if err != nil {
		return nil, err
	}
	e.ownsDB = true
	return e, nil
}

func (e *LocalEngine) Name() string { return "local" }

func (e *LocalEngine) Open(ctx context.Context, name string) (repository.VectorCollection, error) {
	row := VectorCollectionRow{Name: name, CreatedAt: time.Now()}
	err := e.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}
	return &localCollection{db: e.db, name: name}, nil
}

func (e *LocalEngine) Close() error {
	if !e.ownsDB {
		return nil
	}
	sqlDB, err := e.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type localCollection struct {
	db   *gorm.DB
	name string
}

func (c *localCollection) Name() string { return c.name }

func (c *localCollection) Upsert(ctx context.Context, docs []entity.Document, vectors [][]float32) error {
	if err := checkBatch(len(docs), len(vectors)); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]VectorDocumentRow, 0, len(docs))
	for i, d := range docs {
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", d.ID, err)
		}
		rows = append(rows, VectorDocumentRow{
			Collection: c.name,
			DocId:      d.ID,
			Content:    d.Text,
			Metadata:   string(meta),
			Vector:     encodeVector(vectors[i]),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	// 一批写入放在同一个事务里
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "metadata", "vector", "updated_at"}),
		}).CreateInBatches(rows, 200).Error
	})
}

func (c *localCollection) Query(ctx context.Context, vector []float32, k int) ([]entity.RawHit, error) {
	var rows []VectorDocumentRow
	err := c.db.WithContext(ctx).
		Select("doc_id", "content", "metadata", "vector").
		Where("collection = ?", c.name).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	scores := make([]float32, len(rows))
	for i, r := range rows {
		scores[i] = cosineSimilarity(vector, decodeVector(r.Vector))
	}

	best := topK(scores, k)
	hits := make([]entity.RawHit, 0, len(best))
	for _, s := range best {
		r := rows[s.idx]
		meta := entity.Metadata{}
		if r.Metadata != "" {
			_ = json.Unmarshal([]byte(r.Metadata), &meta)
		}
		hits = append(hits, entity.ScoredHit{
			Doc:   entity.Document{ID: r.DocId, Text: r.Content, Metadata: meta},
			Score: s.score,
		})
	}
	return hits, nil
}

func (c *localCollection) Count(ctx context.Context) (int, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&VectorDocumentRow{}).Where("collection = ?", c.name).Count(&n).Error
	return int(n), err
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
