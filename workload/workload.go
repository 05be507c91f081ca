// Package workload 提供演示负载：多个工作协程并发地通过各自的
// 事务会话读写引擎，并把结果打印出来
// 演示负载只是引擎的外部使用者，不参与事务契约
package workload

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"FlatKV/database"
	"FlatKV/util"
)

// Runner 驱动一组工作协程对同一个 DB 实例施加演示负载
type Runner struct {
	db      *database.DB
	workers int // 工作协程数量
	rounds  int // 每个工作协程执行的事务轮数
}

// New 创建一个演示负载 Runner
func New(db *database.DB, workers, rounds int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if rounds <= 0 {
		rounds = 1
	}
	return &Runner{
		db:      db,
		workers: workers,
		rounds:  rounds,
	}
}

// Run 并发执行全部工作协程，阻塞到所有协程结束
func (r *Runner) Run() {
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.runWorker(id)
		}(i)
	}
	wg.Wait()
}

// runWorker 单个工作协程的事务流程：
// 开启事务 -> 写入两个键 -> 读回 -> 删除其中一个 -> 提交
func (r *Runner) runWorker(id int) {
	source, err := util.NewSecureRandSource()
	if err != nil {
		log.Printf("worker %d: create rand source failed: %v", id, err)
		return
	}
	rng := rand.New(source)

	session := r.db.NewSession()
	for round := 0; round < r.rounds; round++ {
		if err := session.Begin(); err != nil {
			log.Printf("worker %d: begin failed: %v", id, err)
			return
		}

		key1 := fmt.Sprintf("key%d_1", id)
		key2 := fmt.Sprintf("key%d_2", id)
		value1 := fmt.Sprintf("value%d_1_%x", id, rng.Uint32())
		value2 := fmt.Sprintf("value%d_2_%x", id, rng.Uint32())

		if _, _, err := session.Set(key1, value1); err != nil {
			log.Printf("worker %d: set %s failed: %v", id, key1, err)
		} else {
			log.Printf("worker %d: set %s = %s", id, key1, value1)
		}
		if _, _, err := session.Set(key2, value2); err != nil {
			log.Printf("worker %d: set %s failed: %v", id, key2, err)
		} else {
			log.Printf("worker %d: set %s = %s", id, key2, value2)
		}

		if got, found, err := session.Get(key1); err != nil || !found {
			log.Printf("worker %d: get %s failed: found=%v err=%v", id, key1, found, err)
		} else {
			log.Printf("worker %d: got %s = %s", id, key1, got)
		}
		if got, found, err := session.Get(key2); err != nil || !found {
			log.Printf("worker %d: get %s failed: found=%v err=%v", id, key2, found, err)
		} else {
			log.Printf("worker %d: got %s = %s", id, key2, got)
		}

		if _, _, err := session.Del(key1); err != nil {
			log.Printf("worker %d: del %s failed: %v", id, key1, err)
		} else {
			log.Printf("worker %d: deleted %s", id, key1)
		}

		if err := session.Commit(); err != nil {
			log.Printf("worker %d: commit failed: %v", id, err)
			return
		}
		log.Printf("worker %d: committed round %d", id, round)
	}
}
